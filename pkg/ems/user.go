package ems

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/Bibi40k/ems-provision/configs"
	"github.com/Bibi40k/ems-provision/internal/utils"
	"github.com/Bibi40k/ems-provision/pkg/wizard"
)

// UserWizardName identifies add-user drafts.
const UserWizardName = "user"

// User form fields.
const (
	FieldUsername        = "username"
	FieldFullName        = "full_name"
	FieldEmail           = "email"
	FieldRole            = "role"
	FieldSites           = "sites"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldMFA             = "mfa"
)

// SecretFields are never written to drafts.
var SecretFields = []string{FieldPassword, FieldPasswordConfirm}

var usernameRE = regexp.MustCompile(`^[a-z][a-z0-9._-]{2,31}$`)

// UserOptions configures the add-user wizard.
type UserOptions struct {
	UsernameTaken func(username string) bool
	SiteExists    func(id string) bool
}

// UserWizard returns the four-step add-user definition.
func UserWizard(opts UserOptions) wizard.Definition {
	minLen := configs.Defaults.Users.PasswordMinLength
	return wizard.Definition{
		Name: UserWizardName,
		Steps: []wizard.StepSpec{
			{
				Label:  "Account",
				Fields: []string{FieldUsername, FieldFullName, FieldEmail},
				Validate: wizard.Rules(
					wizard.Required(FieldUsername),
					wizard.MatchRegexp(FieldUsername, usernameRE, "3-32 lowercase letters, digits, '.', '_' or '-'"),
					wizard.Check(FieldUsername, func(data wizard.FormData) string {
						if opts.UsernameTaken != nil && opts.UsernameTaken(wizard.String(data, FieldUsername)) {
							return "username already exists"
						}
						return ""
					}),
					wizard.Required(FieldEmail),
					wizard.Email(FieldEmail),
				),
			},
			{
				Label:  "Role",
				Fields: []string{FieldRole, FieldSites},
				Validate: wizard.Rules(
					wizard.Required(FieldRole),
					wizard.OneOf(FieldRole, configs.Defaults.RoleNames()...),
					wizard.Check(FieldSites, func(data wizard.FormData) string {
						if opts.SiteExists == nil {
							return ""
						}
						for _, s := range wizard.Strings(data, FieldSites) {
							if !opts.SiteExists(s) {
								return fmt.Sprintf("unknown site %q", s)
							}
						}
						return ""
					}),
				),
			},
			{
				Label:  "Credentials",
				Fields: []string{FieldPassword, FieldPasswordConfirm, FieldMFA},
				Validate: wizard.Rules(
					wizard.Check(FieldPassword, func(data wizard.FormData) string {
						if err := utils.ValidatePassword(rawString(data, FieldPassword), minLen); err != nil {
							return err.Error()
						}
						return ""
					}),
					wizard.Check(FieldPasswordConfirm, func(data wizard.FormData) string {
						if rawString(data, FieldPassword) != rawString(data, FieldPasswordConfirm) {
							return "passwords do not match"
						}
						return ""
					}),
				),
			},
			{
				Label:    "Review",
				Fields:   []string{FieldConfirm},
				Validate: wizard.Rules(confirmed()),
			},
		},
	}
}

// rawString returns a string field without trimming.
func rawString(data wizard.FormData, key string) string {
	s, _ := data[key].(string)
	return s
}

// Role returns the catalog entry for a role name.
func Role(name string) (configs.RoleInfo, bool) {
	for _, r := range configs.Defaults.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return configs.RoleInfo{}, false
}

// BuildUser turns completed user form data into a User. The password is
// stored as a bcrypt hash.
func BuildUser(data wizard.FormData, now time.Time) (User, error) {
	pw := rawString(data, FieldPassword)
	if pw == "" {
		return User{}, fmt.Errorf("password is required")
	}
	hash, err := utils.HashPasswordBcrypt(pw)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     wizard.String(data, FieldUsername),
		FullName:     wizard.String(data, FieldFullName),
		Email:        wizard.String(data, FieldEmail),
		Role:         wizard.String(data, FieldRole),
		Sites:        wizard.Strings(data, FieldSites),
		PasswordHash: hash,
		MFA:          wizard.Bool(data, FieldMFA),
		CreatedAt:    now.UTC(),
	}
	if u.Username == "" {
		return User{}, fmt.Errorf("username is required")
	}
	return u, nil
}
