package entity

// User is the aggregate root stored under the users key.
// Password holds a bcrypt hash; the preference core never reads or writes it.
type User struct {
	Username    string           `json:"-"`
	Password    string           `json:"password"`
	Preferences PreferenceRecord `json:"preferences"`
}
