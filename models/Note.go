package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Note is a bulletin-board post for a house.
type Note struct {
	gorm.Model
	HouseID  uint           `json:"houseID" gorm:"index;not null"`
	AuthorID uint           `json:"authorID" gorm:"index;not null"`
	Title    string         `json:"title" gorm:"size:256"`
	Body     string         `json:"body" gorm:"type:text"`
	Pinned   bool           `json:"pinned" gorm:"index"`
	Tags     datatypes.JSON `json:"tags"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// Custom JSON marshaling so Tags comes out as a string array
func (n *Note) MarshalJSON() ([]byte, error) {
	type Alias Note
	aux := &struct {
		Tags []string `json:"tags"`
		*Alias
	}{
		Tags:  []string{},
		Alias: (*Alias)(n),
	}

	if n.Tags != nil {
		var tags []string
		if err := json.Unmarshal(n.Tags, &tags); err == nil {
			aux.Tags = tags
		}
	}

	return json.Marshal(aux)
}
