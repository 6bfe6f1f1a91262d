package auth

import (
	"fmt"
	"slices"

	"budget-portal/internal/domain/program"
	"budget-portal/internal/domain/user"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionView       Action = "view"
	ActionList       Action = "list"
	ActionEdit       Action = "edit"
	ActionComment    Action = "comment"
	ActionTransition Action = "transition"
	ActionAttach     Action = "attach"
	ActionDetach     Action = "detach"
	ActionDelete     Action = "delete"
)

type scope int

const (
	scopeOwn scope = iota
	scopeAny
)

// Target is the program an action is applied to. Create and unfiltered list use the zero value.
type Target struct {
	OwnerID string
	Status  program.Status
}

type rule struct {
	scope scope
	// states limits the program status the action may start from; nil means any.
	states []program.Status
	// stateErr is returned when the program is outside states.
	stateErr error
}

// mutating actions never apply to a Completed or Rejected program.
var mutating = map[Action]bool{
	ActionEdit:       true,
	ActionComment:    true,
	ActionTransition: true,
	ActionAttach:     true,
	ActionDetach:     true,
}

var (
	ownerWorkingStates = []program.Status{program.StatusDraft, program.StatusQuery}

	staffRules = map[Action]rule{
		ActionCreate:     {scope: scopeAny},
		ActionView:       {scope: scopeAny},
		ActionList:       {scope: scopeAny},
		ActionEdit:       {scope: scopeAny},
		ActionComment:    {scope: scopeAny},
		ActionTransition: {scope: scopeAny},
		ActionAttach:     {scope: scopeAny},
		ActionDetach:     {scope: scopeAny},
		ActionDelete:     {scope: scopeAny},
	}

	policy = map[user.Role]map[Action]rule{
		user.RoleUser: {
			ActionCreate:     {scope: scopeAny},
			ActionView:       {scope: scopeOwn},
			ActionList:       {scope: scopeOwn},
			ActionEdit:       {scope: scopeOwn, states: ownerWorkingStates, stateErr: program.ErrForbidden},
			ActionComment:    {scope: scopeOwn, states: ownerWorkingStates, stateErr: program.ErrForbidden},
			ActionTransition: {scope: scopeOwn, states: ownerWorkingStates, stateErr: program.ErrForbidden},
			ActionAttach:     {scope: scopeOwn, states: ownerWorkingStates, stateErr: program.ErrForbidden},
			ActionDetach:     {scope: scopeOwn, states: ownerWorkingStates, stateErr: program.ErrForbidden},
			ActionDelete:     {scope: scopeOwn, states: []program.Status{program.StatusDraft}, stateErr: program.ErrInvalidInput},
		},
		user.RoleFinance: staffRules,
		user.RoleAdmin:   staffRules,
	}

	// userTargets are the statuses a plain user may move a program into.
	userTargets = []program.Status{program.StatusDraft, program.StatusUnderReview, program.StatusQueryAnswered}
)

// CanAct reports whether c may perform action on t. Ownership is checked before state.
func CanAct(c Caller, action Action, t Target) error {
	rules, ok := policy[c.Role]
	if !ok {
		return fmt.Errorf("%w: unknown role %q", program.ErrForbidden, c.Role)
	}
	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("%w: %s not permitted for %s", program.ErrForbidden, action, c.Role)
	}

	if r.scope == scopeOwn && t.OwnerID != c.UserID {
		return fmt.Errorf("%w: not the program owner", program.ErrForbidden)
	}
	if mutating[action] && t.Status.Terminal() {
		return fmt.Errorf("%w: program is %s", program.ErrTerminalState, t.Status)
	}
	if r.states != nil && !slices.Contains(r.states, t.Status) {
		return fmt.Errorf("%w: cannot %s a program in %s", r.stateErr, action, t.Status)
	}
	return nil
}

// CanTarget reports whether role may set a program's status to s.
func CanTarget(role user.Role, s program.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: invalid status %q", program.ErrInvalidInput, s)
	}
	if role.Staff() {
		return nil
	}
	if role == user.RoleUser && slices.Contains(userTargets, s) {
		return nil
	}
	return fmt.Errorf("%w: %s may not set status %s", program.ErrForbidden, role, s)
}
