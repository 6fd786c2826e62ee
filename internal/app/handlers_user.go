package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/middleware"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/services/minio"
	"github.com/nourabuild/profile-service/internal/services/sentry"
)

func (a *App) HandleGetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	user, err := a.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		a.writeStoreError(c, "get_profile", err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{User: models.ToPublicUser(user)})
}

// HandleUpdateProfile applies a partial update. Name and email change only
// when non-empty; the optional fields change whenever they are present, and an
// explicit null clears them.
func (a *App) HandleUpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := models.UserUpdate{
		FirstName: req.FirstName.update(),
		LastName:  req.LastName.update(),
		Phone:     req.Phone.update(),
		Address:   req.Address.update(),
	}
	if req.Name != "" {
		upd.Name = &req.Name
	}
	if req.Email != "" {
		upd.Email = &req.Email
	}

	ctx := c.Request.Context()

	var user models.User
	if upd.Empty() {
		user, err = a.db.GetUserByID(ctx, userID)
	} else {
		user, err = a.db.UpdateUser(ctx, userID, upd)
	}
	if err != nil {
		a.writeStoreError(c, "update_profile", err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Message: "Profile updated successfully",
		User:    models.ToPublicUser(user),
	})
}

// HandleUploadProfilePicture stores the picture in object storage when it is
// configured and keeps the data URI on the user record otherwise.
func (a *App) HandleUploadProfilePicture(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	var req ProfilePictureRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.ProfilePic == "" {
		writeError(c, ErrMissingImage, map[string]string{"profilePic": "required"})
		return
	}

	ctx := c.Request.Context()

	current, err := a.db.GetUserByID(ctx, userID)
	if err != nil {
		a.writeStoreError(c, "upload_profile_picture", err)
		return
	}

	ref := req.ProfilePic
	if a.avatars != nil {
		ref, err = a.avatars.UploadProfilePicture(ctx, userID, req.ProfilePic)
		if err != nil {
			if errors.Is(err, minio.ErrInvalidImage) {
				writeError(c, ErrInvalidImage, nil)
				return
			}
			a.writeInternalError(c, "upload_profile_picture", "object_storage", err)
			return
		}
	}

	user, err := a.db.SetProfilePic(ctx, userID, &ref)
	if err != nil {
		a.removeAvatar(c, ref)
		a.writeStoreError(c, "upload_profile_picture", err)
		return
	}

	if current.ProfilePic != nil {
		a.removeAvatar(c, *current.ProfilePic)
	}

	c.JSON(http.StatusOK, ProfilePictureResponse{
		Message:    "Profile picture uploaded successfully",
		ProfilePic: *user.ProfilePic,
	})
}

func (a *App) HandleDeleteProfilePicture(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	ctx := c.Request.Context()

	current, err := a.db.GetUserByID(ctx, userID)
	if err != nil {
		a.writeStoreError(c, "delete_profile_picture", err)
		return
	}

	if _, err := a.db.SetProfilePic(ctx, userID, nil); err != nil {
		a.writeStoreError(c, "delete_profile_picture", err)
		return
	}

	if current.ProfilePic != nil {
		a.removeAvatar(c, *current.ProfilePic)
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Profile picture removed successfully"})
}

// removeAvatar deletes a replaced picture from object storage. Failures leave
// an orphaned object behind and are only reported.
func (a *App) removeAvatar(c *gin.Context, ref string) {
	if a.avatars == nil {
		return
	}
	if err := a.avatars.DeleteProfilePicture(c.Request.Context(), ref); err != nil {
		a.toSentry(c, "profile_picture", "object_storage", sentry.LevelWarning, err)
		a.logger.Warn("removing profile picture failed", slog.Any("error", err))
	}
}
