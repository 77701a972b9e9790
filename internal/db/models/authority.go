package models

// Authority is an entry of the authority catalog. The catalog only grows.
type Authority struct {
	// Name is the role name, e.g. ROLE_USER.
	Name string `gorm:"primaryKey;size:100"`
}

// TableName overrides the table name.
func (Authority) TableName() string {
	return "authorities"
}
