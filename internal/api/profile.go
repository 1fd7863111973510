package api

import (
	"booknet/internal/domain"     // Domain models
	"booknet/internal/middleware" // Current identity
	"booknet/internal/response"   // Error envelope
	"booknet/internal/service"    // Profile flow
	"booknet/internal/upload"     // Uploaded profile picture
	"net/http"                    // HTTP status codes
	"strings"                     // Input trimming
	"time"                        // Date of birth

	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gin-gonic/gin/binding" // Form binding
	"github.com/redis/go-redis/v9"     // Redis client
)

// ProfileRequest is a partial profile update sent as JSON or multipart form
type ProfileRequest struct {
	Image       *string `json:"image" form:"image"`                                     // Image URL when no file is uploaded
	DOB         *string `json:"dob" form:"dob" binding:"omitempty,datetime=2006-01-02"` // Date of birth
	Gender      *string `json:"gender" form:"gender"`                                   // Gender
	Designation *string `json:"designation" form:"designation"`                         // Job title
	Mobile      *string `json:"mobile" form:"mobile"`                                   // Phone number
	Address     *string `json:"address" form:"address"`                                 // Postal address
}

func (r *ProfileRequest) trim() {
	for _, f := range []*string{r.Image, r.DOB, r.Gender, r.Designation, r.Mobile, r.Address} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// fields converts the request into a partial update
func (r *ProfileRequest) fields() domain.ProfileFields {
	f := domain.ProfileFields{
		Image:       r.Image,
		Gender:      r.Gender,
		Designation: r.Designation,
		Mobile:      r.Mobile,
		Address:     r.Address,
	}
	if r.DOB != nil && *r.DOB != "" {
		if dob, err := time.Parse(time.DateOnly, *r.DOB); err == nil {
			f.DOB = &dob
		}
	}
	return f
}

// bindProfile reads a JSON or multipart profile update
func bindProfile(c *gin.Context, req *ProfileRequest) error {
	if c.ContentType() == binding.MIMEJSON {
		return bindJSON(c, req)
	}
	if err := c.ShouldBindWith(req, binding.Form); err != nil {
		return bindError(err)
	}
	req.trim()
	return nil
}

// MyProfileHandler returns the caller with its profile
func MyProfileHandler(profiles *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := middleware.CurrentIdentity(c)
		user, err := profiles.MyProfile(c.Request.Context(), *identity)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	}
}

// UpsertProfileHandler creates or updates the profile of :id. It runs after the
// profile picture upload middleware; stored files are removed when the update fails.
func UpsertProfileHandler(profiles *service.ProfileService, store upload.Storage, rdb redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		files := upload.Files(c)
		fail := func(err error) {
			upload.Remove(c.Request.Context(), store, files) // Discard the orphaned upload
			response.Error(c, err)
		}

		var req ProfileRequest
		if err := bindProfile(c, &req); err != nil {
			fail(err)
			return
		}
		fields := req.fields()
		if len(files) > 0 {
			fields.Image = &files[0].URL // Uploaded picture wins over an image URL
		}

		identity, _ := middleware.CurrentIdentity(c)
		profile, created, err := profiles.Upsert(c.Request.Context(), *identity, c.Param("id"), fields)
		if err != nil {
			fail(err)
			return
		}
		invalidateUserList(c.Request.Context(), rdb) // Listed users embed their profile
		status, message := http.StatusOK, "Profile updated successfully"
		if created {
			status, message = http.StatusCreated, "Profile created successfully"
		}
		c.JSON(status, gin.H{"success": true, "message": message, "profile": profile})
	}
}
