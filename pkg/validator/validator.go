package validator

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// ValidateChannel checks channel creation input. Both the REST handler and
// the WebSocket gateway run these before calling into the service.
func ValidateChannel(name, description, icon string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Channel name is required")
	} else if utf8.RuneCountInString(name) < 2 {
		errs.Add("name", "Channel name must be at least 2 characters")
	} else if utf8.RuneCountInString(name) > 100 {
		errs.Add("name", "Channel name is too long")
	}

	if utf8.RuneCountInString(description) > 500 {
		errs.Add("description", "Description is too long")
	}

	if utf8.RuneCountInString(icon) > 50 {
		errs.Add("icon", "Icon is too long")
	}

	return errs
}

func ValidateTopic(title string) ValidationErrors {
	errs := make(ValidationErrors)

	title = strings.TrimSpace(title)
	if title == "" {
		errs.Add("title", "Topic title is required")
	} else if utf8.RuneCountInString(title) < 2 {
		errs.Add("title", "Topic title must be at least 2 characters")
	} else if utf8.RuneCountInString(title) > 200 {
		errs.Add("title", "Topic title is too long")
	}

	return errs
}

func ValidateMessage(body, photoURL string) ValidationErrors {
	errs := make(ValidationErrors)

	if body == "" {
		errs.Add("body", "Message body is required")
	} else if utf8.RuneCountInString(body) > 4000 {
		errs.Add("body", "Message body is too long")
	}

	if photoURL != "" {
		if len(photoURL) > 2048 {
			errs.Add("photo_url", "Photo URL is too long")
		} else if u, err := url.Parse(photoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs.Add("photo_url", "Photo URL must be a valid http(s) URL")
		}
	}

	return errs
}
