package models

import "time"

// UserGroup grants a set of sections and start nodes to its members.
type UserGroup struct {
	EntityBase
	Alias              string   `json:"alias"`
	Name               string   `json:"name"`
	Icon               string   `json:"icon,omitempty"`
	StartContentID     int      `json:"start_content_id,omitempty"`
	StartMediaID       int      `json:"start_media_id,omitempty"`
	DefaultPermissions string   `json:"default_permissions,omitempty"`
	AllowedSections    []string `json:"allowed_sections,omitempty"`
	// UserCount is populated on read.
	UserCount int `json:"user_count"`
}

// NewUserGroup returns an unsaved user group.
func NewUserGroup(alias, name string) *UserGroup {
	return &UserGroup{Alias: alias, Name: name}
}

// AddAllowedSection adds a section alias if not already present.
func (g *UserGroup) AddAllowedSection(section string) {
	for _, s := range g.AllowedSections {
		if s == section {
			return
		}
	}
	g.AllowedSections = append(g.AllowedSections, section)
}

// User is a back-office user.
type User struct {
	EntityBase
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Language      string     `json:"language,omitempty"`
	Disabled      bool       `json:"disabled"`
	LastLoginDate *time.Time `json:"last_login_date,omitempty"`
	// PasswordHash is the bcrypt hash of the password. It is never cached;
	// saving a user without one keeps the stored hash.
	PasswordHash string `json:"-"`
	// GroupAliases lists the groups the user belongs to.
	GroupAliases []string `json:"group_aliases,omitempty"`
}

// NewUser returns an unsaved user.
func NewUser(username, email, name string) *User {
	return &User{Username: username, Email: email, Name: name}
}

// SetPassword replaces the password hash.
func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// InGroup reports whether the user is a member of the group with the alias.
func (u *User) InGroup(alias string) bool {
	for _, a := range u.GroupAliases {
		if a == alias {
			return true
		}
	}
	return false
}

// AddGroup adds a group alias if not already present.
func (u *User) AddGroup(alias string) {
	if !u.InGroup(alias) {
		u.GroupAliases = append(u.GroupAliases, alias)
	}
}

// RemoveGroup removes a group alias.
func (u *User) RemoveGroup(alias string) {
	for i, a := range u.GroupAliases {
		if a == alias {
			u.GroupAliases = append(u.GroupAliases[:i], u.GroupAliases[i+1:]...)
			return
		}
	}
}
