package utils

import (
	"mime/multipart"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"

	"github.com/spdteam/dashboard-server/models"
)

const uploadBucket = "dashboard_uploads"

// UploadImage pushes an uploaded image to the Supabase bucket and returns the
// storage descriptor stored on image-valued responses.
func UploadImage(fh *multipart.FileHeader, fileID string) (*models.ImageDescriptor, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	ext := filepath.Ext(fh.Filename)
	objectPath := "images/" + fileID + ext

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := storageClient.UploadFile(uploadBucket, objectPath, f, options); err != nil {
		return nil, err
	}

	publicURL := storageClient.GetPublicUrl(uploadBucket, objectPath)

	return &models.ImageDescriptor{
		Path: publicURL.SignedURL,
		Name: fh.Filename,
		Type: "image",
		Size: fh.Size,
		Mime: contentType,
	}, nil
}
