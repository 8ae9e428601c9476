package forms

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/anonto42/tracle/internal/models"
	"github.com/anonto42/tracle/internal/repositories"
)

// ChangeUserForm renames the viewer's channel. Email is shown read-only and
// always comes from the session user.
type ChangeUserForm struct {
	Email       string `form:"-"`
	ChannelName string `form:"channel_name" validate:"required,min=3,max=50,channelname"`

	errors Errors
}

func (f *ChangeUserForm) Errors() Errors { return f.errors }

// IsValid checks the name rules and that no other channel uses the name.
func (f *ChangeUserForm) IsValid(ctx context.Context, channels repositories.ChannelRepository, channelID uint) (bool, error) {
	f.ChannelName = strings.TrimSpace(f.ChannelName)
	f.errors = validateStruct(f)
	if len(f.errors.Get("channel_name")) == 0 {
		taken, err := channels.IsNameTaken(ctx, f.ChannelName, channelID)
		if err != nil {
			return false, err
		}
		if taken {
			f.errors.Add("channel_name", "This channel name is already taken.")
		}
	}
	return !f.errors.Any(), nil
}

// Save renames channel.
func (f *ChangeUserForm) Save(ctx context.Context, channels repositories.ChannelRepository, channel *models.Channel) error {
	channel.Name = f.ChannelName
	return channels.Update(ctx, channel)
}

// VideoDetailsForm edits the metadata of a video. Category holds a category id
// or "" for none; Publish is a checkbox value.
type VideoDetailsForm struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=5000"`
	Category    string `form:"category" validate:"omitempty,numeric"`
	Publish     string `form:"publish"`

	categoryID *uint
	errors     Errors
}

func (f *VideoDetailsForm) Errors() Errors { return f.errors }

// VideoDetailsFromVideo fills the form with the current values of v.
func VideoDetailsFromVideo(v *models.Video) *VideoDetailsForm {
	f := &VideoDetailsForm{Title: v.Title, Description: v.Description}
	if v.CategoryID != nil {
		f.Category = strconv.FormatUint(uint64(*v.CategoryID), 10)
	}
	if v.Published {
		f.Publish = "on"
	}
	return f
}

// IsValid validates the fields and that the selected category exists.
func (f *VideoDetailsForm) IsValid(ctx context.Context, categories repositories.CategoryRepository) (bool, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.errors = validateStruct(f)
	f.categoryID = nil

	if f.Category != "" && len(f.errors.Get("category")) == 0 {
		id, err := strconv.ParseUint(f.Category, 10, 64)
		if err != nil {
			f.errors.Add("category", "Select a valid choice.")
		} else {
			cat, err := categories.GetCategoryByID(ctx, uint(id))
			switch {
			case repositories.IsNotFound(err):
				f.errors.Add("category", "Select a valid choice.")
			case err != nil:
				return false, err
			default:
				f.categoryID = &cat.ID
			}
		}
	}
	return !f.errors.Any(), nil
}

// IsPublished interprets the checkbox value.
func (f *VideoDetailsForm) IsPublished() bool {
	switch strings.ToLower(strings.TrimSpace(f.Publish)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Apply copies the validated values onto v.
func (f *VideoDetailsForm) Apply(v *models.Video) {
	v.Title = f.Title
	v.Description = f.Description
	v.CategoryID = f.categoryID
	v.Published = f.IsPublished()
}

var mentionPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_@])@([A-Za-z0-9_]{3,50})\b`)

// CommentForm posts a comment on a video.
type CommentForm struct {
	Content string `form:"content" validate:"required,max=500"`

	errors Errors
}

func (f *CommentForm) Errors() Errors { return f.errors }

func (f *CommentForm) IsValid() bool {
	f.Content = strings.TrimSpace(f.Content)
	f.errors = validateStruct(f)
	return !f.errors.Any()
}

// Mentions returns the distinct channel names tagged with @name, in order.
func (f *CommentForm) Mentions() []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(f.Content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
