package service

// Confirm is the explicit operator latch every mutating call takes. The zero
// value is "not confirmed"; it can only be set through ParseConfirm or
// Confirmed, so a caller cannot mutate state by omission.
type Confirm struct {
	set bool
}

// ParseConfirm accepts exactly the literal "true".
func ParseConfirm(raw string) Confirm {
	return Confirm{set: raw == "true"}
}

// Confirmed is for in-process callers (cron, tests) that confirm by
// construction.
func Confirmed() Confirm {
	return Confirm{set: true}
}

func (c Confirm) IsSet() bool { return c.set }

func requireConfirm(c Confirm, op string) error {
	if c.set {
		return nil
	}
	return newError(CodeConfirmRequired, op+" requires confirm=true", nil)
}
