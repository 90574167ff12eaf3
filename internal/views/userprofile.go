package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"student-connect/internal/api"
	"student-connect/internal/models"
)

// UserProfileScreen is the read-only public profile of another user.
type UserProfileScreen struct {
	mu    sync.Mutex
	users *api.UsersAPI
	seq   uint64
	state State[models.UserProfile]
}

func NewUserProfileScreen(client *api.Client) *UserProfileScreen {
	return &UserProfileScreen{users: client.Users}
}

func (u *UserProfileScreen) Load(ctx context.Context, username string) error {
	u.mu.Lock()
	u.seq++
	seq := u.seq
	u.state = LoadingState[models.UserProfile]()
	u.mu.Unlock()

	profile, err := u.users.Get(ctx, username)

	u.mu.Lock()
	defer u.mu.Unlock()
	if seq != u.seq {
		return err
	}
	if err != nil {
		u.state = FailedState[models.UserProfile](err, api.Detail(err, "User not found"))
		return err
	}
	u.state = LoadedState(*profile)
	return nil
}

func (u *UserProfileScreen) State() State[models.UserProfile] {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *UserProfileScreen) Render(w io.Writer) {
	state := u.State()
	switch state.Phase() {
	case Idle:
		return
	case Loading:
		fmt.Fprintln(w, "Loading profile...")
		return
	case Failed:
		fmt.Fprintln(w, state.Message())
		return
	}

	profile, _ := state.Data()
	fmt.Fprintf(w, "%s (@%s)\n", profile.DisplayName(), profile.Username)
	if profile.Bio != "" {
		fmt.Fprintln(w, profile.Bio)
	}
	if profile.ProfilePicture != "" {
		fmt.Fprintf(w, "Picture: %s\n", profile.ProfilePicture)
	}
	n := len(profile.Posts)
	fmt.Fprintf(w, "\n%d %s\n", n, plural(n, "post", "posts"))
	if n == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	for _, p := range profile.Posts {
		writePostCard(w, p)
		fmt.Fprintln(w)
	}
}
