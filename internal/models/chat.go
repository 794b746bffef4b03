package models

import "time"

const DefaultMaxTags = 5

// Tag is a short annotation attached to a chat.
type Tag struct {
	Text      string    `json:"text"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat owns an ordered, size-bounded list of tags, oldest first.
type Chat struct {
	ID    string  `json:"id"`
	Tags  []Tag   `json:"tags"`
	Admin *string `json:"admin,omitempty"`
}

func NewChat(id string, admin *string) *Chat {
	return &Chat{
		ID:    id,
		Tags:  []Tag{},
		Admin: admin,
	}
}

// AddTag appends tag, evicting the oldest tags first so that at most max
// tags remain. It returns the evicted tags.
func (c *Chat) AddTag(tag Tag, max int) []Tag {
	if max < 1 {
		max = DefaultMaxTags
	}
	var evicted []Tag
	for len(c.Tags) >= max {
		evicted = append(evicted, c.Tags[0])
		c.Tags = c.Tags[1:]
	}
	c.Tags = append(c.Tags, tag)
	return evicted
}

// RemoveTag deletes the tag at index i.
func (c *Chat) RemoveTag(i int) (Tag, error) {
	if i < 0 || i >= len(c.Tags) {
		return Tag{}, ErrTagOutOfRange
	}
	removed := c.Tags[i]
	c.Tags = append(c.Tags[:i:i], c.Tags[i+1:]...)
	return removed, nil
}

// LastTagBy returns the most recent tag written by authorID.
func (c *Chat) LastTagBy(authorID string) (Tag, bool) {
	for i := len(c.Tags) - 1; i >= 0; i-- {
		if c.Tags[i].Author.ID == authorID {
			return c.Tags[i], true
		}
	}
	return Tag{}, false
}
