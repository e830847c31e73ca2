package runtime

import (
	"testing"

	"chat-hub/errors"

	"github.com/stretchr/testify/require"
)

func Test_Register_Generates_Name_When_Blank(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory()

	profile := directory.Register("   ")
	req.Equal("User-"+profile.ID[:6], profile.DisplayName)

	named := directory.Register("  Alice  ")
	req.Equal("Alice", named.DisplayName)
	req.NotEqual(profile.ID, named.ID)
}

func Test_Ensure_Unknown_User_Fails(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory()

	_, err := directory.Ensure("ghost")
	req.ErrorIs(err, errors.ErrUnknownUser)

	profile := directory.Register("Bob")
	found, err := directory.Ensure(profile.ID)
	req.NoError(err)
	req.Equal(profile, found)
}

func Test_Rename_Updates_Existing_Profile(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory()
	profile := directory.Register("Bob")

	renamed, err := directory.Rename(profile.ID, "Robert")
	req.NoError(err)
	req.Equal("Robert", renamed.DisplayName)

	_, err = directory.Rename("ghost", "x")
	req.ErrorIs(err, errors.ErrUnknownUser)
}

func Test_RegisterKnown_Upserts_Caller_Id(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory()

	profile := directory.RegisterKnown("client-123456", "")
	req.Equal("client-123456", profile.ID)
	req.Equal("User-client", profile.DisplayName)

	again := directory.RegisterKnown("client-123456", "Carol")
	req.Equal("Carol", again.DisplayName)
}
