package participant

import (
	"fmt"
	"strconv"
	"strings"
)

// Title is the honorific shown on a badge.
type Title string

const (
	TitleProf    Title = "Prof."
	TitleDr      Title = "Dr."
	TitleStudent Title = "Student"
)

// DefaultTitle is applied when a draft leaves the title empty.
const DefaultTitle = TitleProf

// Titles lists the accepted titles in display order.
var Titles = []Title{TitleProf, TitleDr, TitleStudent}

// Valid reports whether t is one of Titles.
func (t Title) Valid() bool {
	for _, v := range Titles {
		if v == t {
			return true
		}
	}
	return false
}

// RegistrationType is the registration tier. The numeric values are the
// ones persisted by the store.
type RegistrationType int

const (
	RegistrationFull    RegistrationType = 1
	RegistrationStudent RegistrationType = 2
	RegistrationNone    RegistrationType = 3
)

// DefaultRegistrationType is the tier preselected on a new draft.
const DefaultRegistrationType = RegistrationFull

// Valid reports whether r is one of the three known tiers.
func (r RegistrationType) Valid() bool {
	return r >= RegistrationFull && r <= RegistrationNone
}

// String returns the lowercase tier name.
func (r RegistrationType) String() string {
	switch r {
	case RegistrationFull:
		return "full"
	case RegistrationStudent:
		return "student"
	case RegistrationNone:
		return "none"
	default:
		return fmt.Sprintf("RegistrationType(%d)", int(r))
	}
}

// ParseRegistrationType accepts "1".."3" or the tier names, case-insensitive.
func ParseRegistrationType(s string) (RegistrationType, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "full":
		return RegistrationFull, nil
	case "student":
		return RegistrationStudent, nil
	case "none":
		return RegistrationNone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !RegistrationType(n).Valid() {
		return 0, NewInvalidFormat(FieldRegistrationType, fmt.Sprintf("registration type %q is not one of full, student, none", s))
	}
	return RegistrationType(n), nil
}

// Participant is a registered attendee. Once created it is owned by the
// store; every other layer works on copies.
type Participant struct {
	UserID           int              `json:"user_id"`
	FullName         string           `json:"full_name"`
	Title            Title            `json:"title"`
	RegistrationType RegistrationType `json:"registration_type"`
	PhotoPath        *string          `json:"photo_path,omitempty"`
}

// Clone returns a copy that shares no pointers with p.
func (p Participant) Clone() Participant {
	if p.PhotoPath != nil {
		path := *p.PhotoPath
		p.PhotoPath = &path
	}
	return p
}

// Equal compares two records field by field, including the photo path value.
func (p Participant) Equal(o Participant) bool {
	if p.UserID != o.UserID || p.FullName != o.FullName || p.Title != o.Title || p.RegistrationType != o.RegistrationType {
		return false
	}
	if (p.PhotoPath == nil) != (o.PhotoPath == nil) {
		return false
	}
	return p.PhotoPath == nil || *p.PhotoPath == *o.PhotoPath
}

// Draft is the text form of a registration as typed by the user.
type Draft struct {
	UserID           string           `json:"user_id"`
	FullName         string           `json:"full_name"`
	Title            Title            `json:"title"`
	RegistrationType RegistrationType `json:"registration_type"`
	PhotoPath        *string          `json:"photo_path,omitempty"`
}

// NewDraft returns a draft holding the form defaults.
func NewDraft() Draft {
	return Draft{
		Title:            DefaultTitle,
		RegistrationType: DefaultRegistrationType,
	}
}

// ParseUserID parses raw as a 32-bit decimal integer after trimming
// whitespace. Blank input is a MissingField error, anything else that does
// not parse is InvalidFormat.
func ParseUserID(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, NewMissingField(FieldUserID, "User ID is required")
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, &Error{
			Code:    CodeInvalidFormat,
			Field:   FieldUserID,
			Message: "User ID must be a valid number",
			Err:     err,
		}
	}
	return int(n), nil
}

// Validate checks d in submit order and returns the record it describes.
// The returned record is not yet stored.
func (d Draft) Validate() (Participant, error) {
	id, err := ParseUserID(d.UserID)
	if err != nil {
		return Participant{}, err
	}

	name := NormalizeName(d.FullName)
	if name == "" {
		return Participant{}, NewMissingField(FieldFullName, "Full Name is required")
	}

	title := d.Title
	if strings.TrimSpace(string(title)) == "" {
		title = DefaultTitle
	}
	if !title.Valid() {
		return Participant{}, NewInvalidFormat(FieldTitle, fmt.Sprintf("title %q is not one of Prof., Dr., Student", d.Title))
	}

	regType := d.RegistrationType
	if regType == 0 {
		regType = DefaultRegistrationType
	}
	if !regType.Valid() {
		return Participant{}, NewInvalidFormat(FieldRegistrationType, fmt.Sprintf("registration type %d is not one of 1, 2, 3", int(d.RegistrationType)))
	}

	p := Participant{
		UserID:           id,
		FullName:         name,
		Title:            title,
		RegistrationType: regType,
	}
	if d.PhotoPath != nil {
		path := *d.PhotoPath
		p.PhotoPath = &path
	}
	return p, nil
}
