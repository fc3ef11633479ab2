package staff

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of functional roles. Free-text position labels are
// normalized into it by ParseRole; nothing outside this file inspects the raw
// label for authorization.
type Role string

const (
	RoleMainDoctor Role = "main_doctor"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RoleUnknown    Role = "unknown"
)

// Canonical position labels as stored by the registration office.
const (
	labelMainDoctor = "головний лікар"
	labelDoctor     = "лікар"
	labelNurse      = "медсестра/медбрат"
)

// ParseRole derives the functional role from a position label. Matching is
// case- and surrounding-whitespace-insensitive. Labels that drift from the
// canonical spelling still resolve through substring fallbacks ("лікар" for
// doctors, "сестр" for nurses); the main-doctor label is matched by equality
// only, before the doctor substring, since it contains it.
func ParseRole(position string) Role {
	p := strings.ToLower(strings.TrimSpace(position))
	switch {
	case p == "":
		return RoleUnknown
	case p == labelMainDoctor:
		return RoleMainDoctor
	case p == labelDoctor || strings.Contains(p, "лікар"):
		return RoleDoctor
	case p == labelNurse || strings.Contains(p, "сестр"):
		return RoleNurse
	default:
		return RoleUnknown
	}
}

// All capability predicates fail closed: a nil receiver has no capabilities.

func (s *Staff) IsMainDoctor() bool {
	return s != nil && s.Role == RoleMainDoctor
}

func (s *Staff) IsDoctor() bool {
	return s != nil && s.Role == RoleDoctor
}

func (s *Staff) IsNurse() bool {
	return s != nil && s.Role == RoleNurse
}

// CanAccessMainDoctorArea reports access to the main doctor pages.
func (s *Staff) CanAccessMainDoctorArea() bool {
	return s.IsMainDoctor()
}

// CanAccessDoctorArea reports access to the doctor pages: any doctor,
// including the main doctor.
func (s *Staff) CanAccessDoctorArea() bool {
	return s.IsDoctor() || s.IsMainDoctor()
}

// CanAccessNurseArea reports access to the nurse pages.
func (s *Staff) CanAccessNurseArea() bool {
	return s.IsNurse()
}

// CanManagePersonnel reports whether the actor may create, edit, and delete
// staff records.
func (s *Staff) CanManagePersonnel() bool {
	return s.IsMainDoctor()
}

// CanDeletePersonnel reports whether the actor may delete the target staff
// member. Self-deletion is forbidden.
func (s *Staff) CanDeletePersonnel(target *Staff) bool {
	if s == nil || target == nil {
		return false
	}
	if s.ID == target.ID {
		return false
	}
	return s.IsMainDoctor()
}

// CanManagePatient reports whether the actor may edit or discharge a patient
// assigned to doctorID. Plain doctors are restricted to their own patients;
// the main doctor manages all of them.
func (s *Staff) CanManagePatient(doctorID uuid.UUID) bool {
	if s == nil {
		return false
	}
	if s.IsMainDoctor() {
		return true
	}
	return s.IsDoctor() && s.ID == doctorID
}

// HomePath is the post-login landing page for the role.
func (r Role) HomePath() string {
	switch r {
	case RoleMainDoctor:
		return "/MainDoctorHome"
	case RoleDoctor:
		return "/DoctorHome"
	case RoleNurse:
		return "/NurseHome"
	default:
		return "/access-denied"
	}
}
