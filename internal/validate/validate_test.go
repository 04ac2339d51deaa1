package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/model"
)

func TestPasswordFirstViolatedRule(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Password must be at least 6 characters long"},
		{"Ab1!", "Password must be at least 6 characters long"},
		{"abcdef1!", "Password must contain at least one uppercase letter"},
		{"ABCDEF1!", "Password must contain at least one lowercase letter"},
		{"Abcdefg!", "Password must contain at least one number"},
		{"Abcdef12", "Password must contain at least one special character"},
		{"Abc def1!", "Password must not contain spaces"},
		{"Abc\tdef1!", "Password must not contain spaces"},
		// Length is checked before anything else even when every rule fails.
		{"   ", "Password must be at least 6 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Password(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestPasswordAccepts(t *testing.T) {
	for _, s := range []string{"Abcde1!", "Zz9#zz", "Pässwörd1_"} {
		assert.NoError(t, Password(s), s)
	}
}

func TestPasswordConfirmation(t *testing.T) {
	assert.NoError(t, PasswordConfirmation("Abcde1!", "Abcde1!"))
	assert.EqualError(t, PasswordConfirmation("Abcde1!", ""), "Please confirm your password")
	assert.EqualError(t, PasswordConfirmation("Abcde1!", "abcde1!"), "Passwords do not match")
}

func TestEmailAndOTP(t *testing.T) {
	assert.NoError(t, Email(" jane.doe+jobs@example.co.uk "))
	assert.EqualError(t, Email(""), "Email is required")
	assert.EqualError(t, Email("jane@"), "Enter a valid email address")

	assert.NoError(t, OTP("012345"))
	assert.EqualError(t, OTP(""), "OTP is required")
	assert.EqualError(t, OTP("12345"), "OTP must be 6 digits")
	assert.EqualError(t, OTP("12a456"), "OTP must be 6 digits")
}

func TestMinLength(t *testing.T) {
	v := MinLength("Title", 5)
	assert.EqualError(t, v("  "), "Title is required")
	assert.EqualError(t, v(" abcd "), "Title must be at least 5 characters")
	assert.NoError(t, v("abcde"))
}

func validHackathon(now time.Time) model.HackathonInput {
	return model.HackathonInput{
		Title:                "Green Code Jam",
		Description:          "Build something that reduces energy use.",
		Theme:                "Climate",
		Company:              "Acme",
		Prize:                500,
		MaxTeamSize:          4,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartAt:              now.Add(48 * time.Hour),
		EndAt:                now.Add(72 * time.Hour),
	}
}

func TestHackathonValid(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, Hackathon(validHackathon(now), now))

	in := validHackathon(now)
	in.RegistrationDeadline = in.StartAt
	assert.NoError(t, Hackathon(in, now), "deadline may equal the start")
}

func TestHackathonFieldErrors(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*model.HackathonInput)
		field  string
	}{
		{"short title", func(in *model.HackathonInput) { in.Title = "Jam" }, "title"},
		{"short description", func(in *model.HackathonInput) { in.Description = "too short" }, "description"},
		{"short theme", func(in *model.HackathonInput) { in.Theme = "AI" }, "theme"},
		{"no company", func(in *model.HackathonInput) { in.Company = " " }, "company"},
		{"team too big", func(in *model.HackathonInput) { in.MaxTeamSize = 11 }, "maxTeamSize"},
		{"team empty", func(in *model.HackathonInput) { in.MaxTeamSize = 0 }, "maxTeamSize"},
		{"negative prize", func(in *model.HackathonInput) { in.Prize = -1 }, "prize"},
		{"bad banner", func(in *model.HackathonInput) { in.BannerURL = "ftp://x" }, "bannerUrl"},
		{"start in past", func(in *model.HackathonInput) {
			in.RegistrationDeadline = now.Add(-3 * time.Hour)
			in.StartAt = now.Add(-time.Hour)
		}, "startAt"},
		{"end before start", func(in *model.HackathonInput) { in.EndAt = in.StartAt }, "endAt"},
		{"deadline after start", func(in *model.HackathonInput) {
			in.RegistrationDeadline = in.StartAt.Add(time.Minute)
		}, "registrationDeadline"},
		{"missing deadline", func(in *model.HackathonInput) { in.RegistrationDeadline = time.Time{} }, "registrationDeadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validHackathon(now)
			tt.mutate(&in)

			err := Hackathon(in, now)
			require.Error(t, err)

			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			require.Len(t, fe, 1, "got %v", fe)
			assert.Equal(t, tt.field, fe[0].Field)
			assert.NotEmpty(t, fe.First())
		})
	}
}

func TestDateTime(t *testing.T) {
	got, err := DateTime("2024-06-01 09:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), got)

	_, err = DateTime("", time.UTC)
	assert.EqualError(t, err, "Date is required")
	_, err = DateTime("06/01/2024", time.UTC)
	assert.EqualError(t, err, "Use the format YYYY-MM-DD HH:MM")
}
