package users

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"
	"inverpulse/utils"

	"go.uber.org/zap"
)

const (
	maxKYCFileBytes = 5 << 20
	// MaxKYCBodyBytes bounds the whole multipart request.
	MaxKYCBodyBytes = 3*maxKYCFileBytes + 1<<20
)

var kycDocumentTypes = map[string]bool{
	"passport":        true,
	"id_card":         true,
	"drivers_license": true,
}

var kycContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

type kycFile struct {
	field    string
	required bool
}

var kycFiles = []kycFile{
	{field: "document_front", required: true},
	{field: "document_back"},
	{field: "selfie", required: true},
}

// readKYCFile reads one uploaded part, enforcing the size and type limits.
func readKYCFile(fh *multipart.FileHeader) ([]byte, bool) {
	if fh.Size > maxKYCFileBytes {
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxKYCFileBytes+1))
	if err != nil || len(data) > maxKYCFileBytes {
		return nil, false
	}
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return data, kycContentTypes[ct]
}

// SubmitKYCHandler uploads identity documents to object storage and puts the
// investor's KYC back into review.
func SubmitKYCHandler(w http.ResponseWriter, r *http.Request) {
	if utils.Objects == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: "Document storage is not available"})
		return
	}
	investor := currentInvestor(w, r)
	if investor == nil {
		return
	}
	if investor.KYCStatus == models.KYCApproved {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "KYC is already approved"})
		return
	}

	if err := r.ParseMultipartForm(MaxKYCBodyBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	docType := strings.TrimSpace(r.FormValue("document_type"))
	docNumber := strings.TrimSpace(r.FormValue("document_number"))
	if !kycDocumentTypes[docType] {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "document_type must be passport, id_card or drivers_license"})
		return
	}
	if docNumber == "" || len(docNumber) > 64 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "document_number is required"})
		return
	}

	type upload struct {
		field string
		key   string
		data  []byte
	}
	var uploads []upload
	for _, kf := range kycFiles {
		_, fh, err := r.FormFile(kf.field)
		if err != nil {
			if kf.required {
				utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: kf.field + " is required"})
				return
			}
			continue
		}
		data, ok := readKYCFile(fh)
		if !ok {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: kf.field + " must be a JPEG, PNG or PDF up to 5MB"})
			return
		}
		uploads = append(uploads, upload{field: kf.field, key: utils.KYCObjectKey(investor.ID, kf.field, fh.Filename), data: data})
	}

	log := logging.Named("kyc")
	docs := models.Documents{
		"document_type":   docType,
		"document_number": docNumber,
	}
	var stored []string
	for _, u := range uploads {
		if err := utils.Objects.Put(r.Context(), u.key, bytes.NewReader(u.data), int64(len(u.data))); err != nil {
			log.Error("document upload failed", zap.String("investor_id", investor.ID), zap.String("key", u.key), zap.Error(err))
			for _, key := range stored {
				_ = utils.Objects.Delete(r.Context(), key)
			}
			utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Failed to store documents"})
			return
		}
		stored = append(stored, u.key)
		docs[u.field] = u.key
	}

	if err := database.DB.WithContext(r.Context()).Model(&models.Investor{}).
		Where("investor_id = ?", investor.ID).
		Updates(map[string]interface{}{
			"kyc_status":    models.KYCPending,
			"kyc_documents": docs,
		}).Error; err != nil {
		log.Error("kyc update failed", zap.String("investor_id", investor.ID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	// pending KYC never counts as a valid referral, so no re-evaluation
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "KYC documents submitted for review",
		Data:    map[string]interface{}{"kyc_status": models.KYCPending, "documents": len(uploads)},
	})
}
