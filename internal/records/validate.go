package records

import "fmt"

// CheckCreate validates rec as a new record over current, which is nil when
// nothing is stored at the address. A tombstone may be replaced by a fresh
// record starting again at version 0.
func CheckCreate(current *Record, rec Record) error {
	if err := checkShape(rec); err != nil {
		return err
	}
	if current != nil && !current.Deleted() {
		return ErrRecordExists
	}
	if rec.Deleted() {
		return fmt.Errorf("%w: cannot create an empty record", ErrInvalidRecord)
	}
	if rec.Version != 0 {
		return fmt.Errorf("%w: new records start at version 0, got %d", ErrConflict, rec.Version)
	}
	if !rec.SignedBy(rec.Owners) {
		return ErrUnauthorized
	}
	return nil
}

// CheckUpdate validates rec as the successor of the live record current.
func CheckUpdate(current *Record, rec Record) error {
	if err := checkSuccessor(current, rec); err != nil {
		return err
	}
	if rec.Deleted() {
		return fmt.Errorf("%w: updates must carry a payload", ErrInvalidRecord)
	}
	return nil
}

// CheckDelete validates rec as the tombstone replacing the live record current.
func CheckDelete(current *Record, rec Record) error {
	if err := checkSuccessor(current, rec); err != nil {
		return err
	}
	if !rec.Deleted() {
		return fmt.Errorf("%w: tombstones must have an empty payload", ErrInvalidRecord)
	}
	return nil
}

func checkSuccessor(current *Record, rec Record) error {
	if err := checkShape(rec); err != nil {
		return err
	}
	if current == nil || current.Deleted() {
		return ErrRecordNotFound
	}
	if current.Tag != rec.Tag {
		return ErrTagMismatch
	}
	if rec.Version != current.Version+1 {
		return fmt.Errorf("%w: stored version %d, got %d", ErrConflict, current.Version, rec.Version)
	}
	if !rec.SignedBy(current.Owners) {
		return ErrUnauthorized
	}
	return nil
}

func checkShape(rec Record) error {
	if rec.Address == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidRecord)
	}
	if len(rec.Owners) == 0 {
		return fmt.Errorf("%w: no owners", ErrInvalidRecord)
	}
	return nil
}
