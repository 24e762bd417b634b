package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/middleware"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

// multipartOverhead is allowed on top of the four files for form fields and boundaries.
const multipartOverhead = 1 << 20

// SubmissionController serves the applicant endpoints.
type SubmissionController struct {
	submissions  Submitter
	maxBodyBytes int64
}

// NewSubmissionController caps a submission body at four files of maxFileBytes plus form overhead.
func NewSubmissionController(submissions Submitter, maxFileBytes int64) *SubmissionController {
	return &SubmissionController{
		submissions:  submissions,
		maxBodyBytes: int64(len(models.UploadFields))*maxFileBytes + multipartOverhead,
	}
}

type submitForm struct {
	UserType        string `form:"userType"`
	Title           string `form:"title"`
	Name            string `form:"name"`
	RollNo          string `form:"rollNo"`
	StaffNo         string `form:"staffNo"`
	Designation     string `form:"designation"`
	Department      string `form:"department"`
	Branch          string `form:"branch"`
	FatherName      string `form:"fatherName"`
	DOB             string `form:"dob"`
	BloodGroup      string `form:"bloodGroup"`
	Email           string `form:"email"`
	Phone           string `form:"phone"`
	Address         string `form:"address"`
	RequestCategory string `form:"requestCategory"`
	ReasonDetails   string `form:"reasonDetails"`
	IssuedBooks     string `form:"issuedBooks"`
}

func (f submitForm) input() services.SubmitInput {
	return services.SubmitInput{
		UserType:        f.UserType,
		Title:           f.Title,
		Name:            f.Name,
		RollNo:          f.RollNo,
		StaffNo:         f.StaffNo,
		Designation:     f.Designation,
		Department:      f.Department,
		Branch:          f.Branch,
		FatherName:      f.FatherName,
		DOB:             f.DOB,
		BloodGroup:      f.BloodGroup,
		Email:           f.Email,
		Phone:           f.Phone,
		Address:         f.Address,
		RequestCategory: f.RequestCategory,
		ReasonDetails:   f.ReasonDetails,
		IssuedBooks:     f.IssuedBooks,
	}
}

// openUploads opens the first file of every known upload field. The caller closes the returned files.
func openUploads(form *multipart.Form) ([]services.FileUpload, []multipart.File, error) {
	var uploads []services.FileUpload
	var opened []multipart.File
	if form == nil {
		return nil, nil, nil
	}
	for _, field := range models.UploadFields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			closeAll(opened)
			return nil, nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, services.FileUpload{Field: field, Size: headers[0].Size, Body: f})
	}
	return uploads, opened, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// Submit accepts the multipart application form with up to four documents.
func (s *SubmissionController) Submit(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, s.maxBodyBytes)

	var form submitForm
	if err := ctx.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41300, "request body too large")
			return
		}
		utils.Error(ctx, http.StatusBadRequest, 40008, "invalid form data")
		return
	}

	// The token records the applicant type the e-mail was verified for.
	if verified := ctx.GetString(middleware.ContextUserTypeKey); !strings.EqualFold(strings.TrimSpace(form.UserType), verified) {
		utils.Error(ctx, http.StatusBadRequest, 40011, "userType does not match the verified account")
		return
	}

	uploads, opened, err := openUploads(ctx.Request.MultipartForm)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40009, "failed to read uploaded file")
		return
	}
	defer closeAll(opened)

	email := ctx.GetString(middleware.ContextApplicantEmailKey)
	app, err := s.submissions.Submit(ctx.Request.Context(), form.input(), email, uploads)
	if err != nil {
		respondError(ctx, err, 50040, "submit application")
		return
	}
	utils.SuccessStatus(ctx, http.StatusCreated, gin.H{
		"message":       "Application submitted successfully",
		"applicationId": app.ApplicationID,
		"application":   app,
	})
}

// Status lets an applicant track their own application.
func (s *SubmissionController) Status(ctx *gin.Context) {
	email := ctx.GetString(middleware.ContextApplicantEmailKey)
	app, err := s.submissions.Status(ctx.Request.Context(), ctx.Param("id"), email)
	if err != nil {
		respondError(ctx, err, 50041, "application status")
		return
	}
	utils.Success(ctx, gin.H{
		"application": gin.H{
			"applicationId":   app.ApplicationID,
			"status":          app.Status,
			"rejectionReason": app.RejectionReason,
			"userType":        app.UserType,
			"name":            app.Name,
			"createdAt":       app.CreatedAt,
			"updatedAt":       app.UpdatedAt,
		},
	})
}
