package proc

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// CurrentUID returns the real uid of the running process.
func CurrentUID() uint32 {
	return uint32(os.Getuid())
}

// SystemUsers returns the host user database (passwd, directory services).
func SystemUsers() UserDatabase {
	return osUsers{}
}

type osUsers struct{}

func (osUsers) LookupUID(uid uint32) (model.Owner, error) {
	id := strconv.FormatUint(uint64(uid), 10)
	u, err := user.LookupId(id)
	if err != nil {
		var unknown user.UnknownUserIdError
		if errors.As(err, &unknown) {
			return model.Owner{}, fmt.Errorf("uid %d: %w", uid, ErrUserNotFound)
		}
		return model.Owner{}, fmt.Errorf("uid %d: %w", uid, err)
	}
	return model.Owner{
		UID:      uid,
		Username: u.Username,
		Name:     u.Name,
		HomeDir:  u.HomeDir,
	}, nil
}
