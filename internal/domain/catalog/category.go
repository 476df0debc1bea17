package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
)

// UnclassifiedCategoryCode is the fixed category products are exported under
// when they carry no channel category of their own
const UnclassifiedCategoryCode = "UNCLASSIFIED"

// Category represents a product category.
// Categories mirrored from a storefront keep the channel and remote id they came from.
type Category struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	ParentID  *uuid.UUID
	Path      string // Materialized path of ids for tree queries
	Level     int
	ChannelID *uuid.UUID
	RemoteID  *int
}

// NewCategory creates a new root category
func NewCategory(code, name string) (*Category, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validateCategoryCode(code); err != nil {
		return nil, err
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
	}
	category.Path = category.ID.String()
	return category, nil
}

// NewUnclassifiedCategory creates the fallback export category
func NewUnclassifiedCategory() *Category {
	c, _ := NewCategory(UnclassifiedCategoryCode, "Unclassified")
	return c
}

// NewRemoteCategory creates a category mirrored from a channel.
// A nil parent makes it a root of the local tree.
func NewRemoteCategory(channelID uuid.UUID, remoteID int, name string, parent *Category) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Category %d", remoteID)
	}
	code := fmt.Sprintf("CH-%s-%d", channelID.String()[:8], remoteID)
	category, err := NewCategory(code, name)
	if err != nil {
		return nil, err
	}
	category.ChannelID = &channelID
	category.RemoteID = &remoteID
	if parent != nil {
		category.ParentID = &parent.ID
		category.Level = parent.Level + 1
		category.Path = parent.Path + "/" + category.ID.String()
	}
	return category, nil
}

// Rename updates the display name, keeping the old name for blank input
func (c *Category) Rename(name string) {
	name = strings.TrimSpace(name)
	if name == "" || name == c.Name {
		return
	}
	c.Name = name
	c.Touch()
	c.IncrementVersion()
}

// IsRoot returns true if this is a root category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsRemote returns true if the category mirrors a channel category
func (c *Category) IsRemote() bool {
	return c.ChannelID != nil && c.RemoteID != nil
}

// RemoteIDOn returns the remote id of the category on a channel
func (c *Category) RemoteIDOn(channelID uuid.UUID) (int, bool) {
	if !c.IsRemote() || *c.ChannelID != channelID {
		return 0, false
	}
	return *c.RemoteID, true
}

// BindRemote maps a local category to a category of a channel
func (c *Category) BindRemote(channelID uuid.UUID, remoteID int) {
	c.ChannelID = &channelID
	c.RemoteID = &remoteID
	c.IncrementVersion()
}

// GetAncestorIDs returns the IDs of all ancestor categories
func (c *Category) GetAncestorIDs() []uuid.UUID {
	parts := strings.Split(c.Path, "/")
	if len(parts) <= 1 {
		return nil
	}

	ancestors := make([]uuid.UUID, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		if id, err := uuid.Parse(part); err == nil {
			ancestors = append(ancestors, id)
		}
	}
	return ancestors
}

// IsAncestorOf returns true if this category is an ancestor of the given category
func (c *Category) IsAncestorOf(other *Category) bool {
	if other == nil || other.Path == "" {
		return false
	}
	return strings.HasPrefix(other.Path, c.Path+"/")
}

func validateCategoryCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Category code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 255 characters")
	}
	return nil
}
