package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/Govind-10090/bend-the-bar-gym/utils"
)

// ValidateJSON decodes a JSON payload into dst and runs
// utils.ValidateStruct. On failure it has already written the 4xx
// response; callers just return on a non-nil error.
func ValidateJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return err
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
		return err
	}
	return nil
}
