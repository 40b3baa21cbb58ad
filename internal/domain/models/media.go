package models

import "strings"

// Media describes one uploaded asset. The bytes live in the object store under
// S3Key; everything else references the record by ID.
type Media struct {
	Base `bson:",inline"`

	Filename         string `bson:"filename" json:"filename"`
	OriginalFilename string `bson:"original_filename" json:"originalFilename"`
	MimeType         string `bson:"mime_type" json:"mimeType"`
	FileSize         int64  `bson:"file_size" json:"fileSize"`
	URL              string `bson:"url" json:"url"`
	S3Key            string `bson:"s3_key" json:"s3Key"`
	S3Bucket         string `bson:"s3_bucket,omitempty" json:"s3Bucket,omitempty"`
	Alt              string `bson:"alt,omitempty" json:"alt,omitempty" validate:"max=300"`
	Caption          string `bson:"caption,omitempty" json:"caption,omitempty" validate:"max=1000"`
	Width            int    `bson:"width,omitempty" json:"width,omitempty"`
	Height           int    `bson:"height,omitempty" json:"height,omitempty"`
	Folder           string `bson:"folder,omitempty" json:"folder,omitempty"`
	UploadedBy       string `bson:"uploaded_by,omitempty" json:"uploadedBy,omitempty"`
	PageCount        int    `bson:"page_count,omitempty" json:"pageCount,omitempty"` // PDFs only
}

// IsImage reports whether the stored asset is an image.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.MimeType, "image/")
}

// Document MIME types accepted for resume uploads.
var ResumeMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// IsResumeDocument reports whether m can be attached to a Resume.
func (m *Media) IsResumeDocument() bool {
	for _, t := range ResumeMimeTypes {
		if m.MimeType == t {
			return true
		}
	}
	return false
}
