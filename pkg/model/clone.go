package model

import "time"

// Clone returns a deep copy of the form.
func (f Form) Clone() Form {
	out := f
	if f.Fields != nil {
		out.Fields = make([]Field, len(f.Fields))
		for idx, field := range f.Fields {
			out.Fields[idx] = field.Clone()
		}
	}
	out.Settings = f.Settings.clone()
	out.CreatedAt = cloneTime(f.CreatedAt)
	out.UpdatedAt = cloneTime(f.UpdatedAt)
	return out
}

// PublicView returns a copy safe to hand to anonymous respondents. Staff
// notification settings and the submission limit are cleared, as is a
// redirect target that is not an absolute http(s) URL.
func (f Form) PublicView() Form {
	out := f.Clone()
	out.Settings.EmailNotification = EmailNotification{}
	out.Settings.SubmissionLimit = nil
	if !SafeRedirectURL(out.Settings.RedirectURL) {
		out.Settings.RedirectURL = ""
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	out.Validation = Validation{
		MinLength: cloneInt(f.Validation.MinLength),
		MaxLength: cloneInt(f.Validation.MaxLength),
		Min:       cloneFloat(f.Validation.Min),
		Max:       cloneFloat(f.Validation.Max),
	}
	out.DefaultValue = CloneValue(f.DefaultValue)
	return out
}

// Clone returns a deep copy of the submission.
func (s Submission) Clone() Submission {
	out := s
	out.Data = CloneValues(s.Data)
	if s.SubmitterInfo != nil {
		info := *s.SubmitterInfo
		out.SubmitterInfo = &info
	}
	out.ReviewedAt = cloneTime(s.ReviewedAt)
	return out
}

// CloneValues deep copies a submission value map.
func CloneValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep copies slices and maps found in submitted values.
func CloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case map[string]any:
		return CloneValues(v)
	case *FileReference:
		if v == nil {
			return v
		}
		ref := *v
		return &ref
	default:
		return v
	}
}

func (s FormSettings) clone() FormSettings {
	out := s
	out.SubmissionLimit = cloneInt(s.SubmissionLimit)
	out.StartDate = cloneTime(s.StartDate)
	out.EndDate = cloneTime(s.EndDate)
	if s.EmailNotification.Recipients != nil {
		out.EmailNotification.Recipients = append([]string(nil), s.EmailNotification.Recipients...)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// IntPtr is a convenience for building sparse validation keys.
func IntPtr(v int) *int { return &v }

// FloatPtr is a convenience for building sparse validation keys.
func FloatPtr(v float64) *float64 { return &v }
