package domain

import (
	"fmt"
	"slices"
)

// CredentialSet is the aggregate of every stored credential plus the one the
// user picked as active. Item ids are unique and the active id, when set,
// always refers to an item. Mutations return a new set.
type CredentialSet struct {
	id       string
	items    []Credential
	activeID string
}

func NewCredentialSet(id string) CredentialSet {
	return CredentialSet{id: id}
}

// CredentialSetProps is the persisted shape of a CredentialSet.
type CredentialSetProps struct {
	ID                 string            `json:"id"`
	Items              []CredentialProps `json:"items"`
	ActiveCredentialID *string           `json:"activeCredentialId"`
}

func CredentialSetFromProps(p CredentialSetProps) (CredentialSet, error) {
	items := make([]Credential, 0, len(p.Items))
	for _, ip := range p.Items {
		c, err := CredentialFromProps(ip)
		if err != nil {
			return CredentialSet{}, err
		}
		items = slices.DeleteFunc(items, func(existing Credential) bool { return existing.id == c.id })
		items = append(items, c)
	}

	set := CredentialSet{id: p.ID, items: items}
	if p.ActiveCredentialID != nil && *p.ActiveCredentialID != "" {
		if set.indexOf(*p.ActiveCredentialID) < 0 {
			return CredentialSet{}, ErrActiveNotInItems
		}
		set.activeID = *p.ActiveCredentialID
	}
	return set, nil
}

func (s CredentialSet) Props() CredentialSetProps {
	items := make([]CredentialProps, len(s.items))
	for i, c := range s.items {
		items[i] = c.Props()
	}
	var active *string
	if s.activeID != "" {
		id := s.activeID
		active = &id
	}
	return CredentialSetProps{ID: s.id, Items: items, ActiveCredentialID: active}
}

func (s CredentialSet) ID() string       { return s.id }
func (s CredentialSet) ActiveID() string { return s.activeID }
func (s CredentialSet) Len() int         { return len(s.items) }
func (s CredentialSet) HasKeys() bool    { return len(s.items) > 0 }

// Items returns a copy of the credentials in insertion order.
func (s CredentialSet) Items() []Credential {
	return slices.Clone(s.items)
}

func (s CredentialSet) Active() (Credential, bool) {
	if s.activeID == "" {
		return Credential{}, false
	}
	return s.Get(s.activeID)
}

func (s CredentialSet) Get(id string) (Credential, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return Credential{}, false
}

// Add stores c, replacing any credential with the same id, and makes it active.
func (s CredentialSet) Add(c Credential) CredentialSet {
	items := slices.DeleteFunc(slices.Clone(s.items), func(existing Credential) bool { return existing.id == c.id })
	items = append(items, c)
	return CredentialSet{id: s.id, items: items, activeID: c.id}
}

// Remove drops the credential with the given id. Removing the active one
// promotes the first remaining credential, if any.
func (s CredentialSet) Remove(id string) CredentialSet {
	items := slices.DeleteFunc(slices.Clone(s.items), func(existing Credential) bool { return existing.id == id })
	active := s.activeID
	if active == id {
		active = ""
		if len(items) > 0 {
			active = items[0].id
		}
	}
	return CredentialSet{id: s.id, items: items, activeID: active}
}

func (s CredentialSet) SetActive(id string) (CredentialSet, error) {
	if s.indexOf(id) < 0 {
		return CredentialSet{}, fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
	}
	return CredentialSet{id: s.id, items: slices.Clone(s.items), activeID: id}, nil
}

// ByProvider returns the provider's credentials in insertion order.
func (s CredentialSet) ByProvider(p Provider) []Credential {
	var out []Credential
	for _, c := range s.items {
		if c.Provider() == p {
			out = append(out, c)
		}
	}
	return out
}

// NextRoundRobin picks the credential after lastUsedID among the provider's
// keys, wrapping around. An empty or unknown lastUsedID selects the first key.
func (s CredentialSet) NextRoundRobin(p Provider, lastUsedID string) (Credential, bool) {
	keys := s.ByProvider(p)
	if len(keys) == 0 {
		return Credential{}, false
	}
	if lastUsedID == "" {
		return keys[0], true
	}
	idx := slices.IndexFunc(keys, func(c Credential) bool { return c.id == lastUsedID })
	if idx < 0 {
		return keys[0], true
	}
	return keys[(idx+1)%len(keys)], true
}

func (s CredentialSet) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(c Credential) bool { return c.id == id })
}
