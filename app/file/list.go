package file

import (
	"bitwise74/file-share-api/app/respond"
	"bitwise74/file-share-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type shareEntry struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	AccessLevel string `json:"access_level"`
	SharedAt    string `json:"shared_at"`
}

type ownedEntry struct {
	ID              uint         `json:"id"`
	Filename        string       `json:"filename"`
	StorageKey      string       `json:"s3_key"`
	Size            int64        `json:"size"`
	UploadTime      string       `json:"upload_time"`
	LastModified    string       `json:"last_modified"`
	SharedWithUsers []string     `json:"shared_with_users"`
	Shares          []shareEntry `json:"shares"`
}

type sharedEntry struct {
	ID          uint   `json:"id"`
	Filename    string `json:"filename"`
	StorageKey  string `json:"s3_key"`
	Size        int64  `json:"size"`
	UploadTime  string `json:"upload_time"`
	SharedBy    string `json:"shared_by"`
	SharedAt    string `json:"shared_at"`
	AccessLevel string `json:"access_level"`
}

// GET /api/files
func List(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	l, err := d.Files.ListFor(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err, nil)
		return
	}

	owned := make([]ownedEntry, 0, len(l.Owned))
	for _, f := range l.Owned {
		e := ownedEntry{
			ID:              f.ID,
			Filename:        f.Filename,
			StorageKey:      f.StorageKey,
			Size:            f.Size,
			UploadTime:      respond.Time(f.UploadTime),
			LastModified:    respond.Time(f.LastModified),
			SharedWithUsers: make([]string, 0, len(f.Shares)),
			Shares:          make([]shareEntry, 0, len(f.Shares)),
		}

		for _, s := range f.Shares {
			e.SharedWithUsers = append(e.SharedWithUsers, s.Grantee.Username)
			e.Shares = append(e.Shares, shareEntry{
				UserID:      s.GranteeID,
				Username:    s.Grantee.Username,
				AccessLevel: string(s.Access),
				SharedAt:    respond.Time(s.GrantedAt),
			})
		}

		owned = append(owned, e)
	}

	shared := make([]sharedEntry, 0, len(l.Shared))
	for _, s := range l.Shared {
		shared = append(shared, sharedEntry{
			ID:          s.File.ID,
			Filename:    s.File.Filename,
			StorageKey:  s.File.StorageKey,
			Size:        s.File.Size,
			UploadTime:  respond.Time(s.File.UploadTime),
			SharedBy:    s.File.Owner.Username,
			SharedAt:    respond.Time(s.GrantedAt),
			AccessLevel: string(s.Access),
		})
	}

	respond.OK(c, http.StatusOK, "OK", gin.H{
		"owned_files":  owned,
		"shared_files": shared,
	})
}
