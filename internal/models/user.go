package models

// User is a message author known to the bot. ID is the platform id rendered
// as a decimal string.
type User struct {
	ID              string  `json:"id" validate:"required"`
	FirstName       string  `json:"first_name,omitempty"`
	LastName        string  `json:"last_name,omitempty"`
	Username        string  `json:"username,omitempty"`
	LastQueriedChat *string `json:"last_queried_chat,omitempty"`
}

// DisplayName is the username when set, otherwise the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// Merge copies the profile fields of src into u, keeping LastQueriedChat.
func (u *User) Merge(src User) {
	u.FirstName = src.FirstName
	u.LastName = src.LastName
	u.Username = src.Username
}
