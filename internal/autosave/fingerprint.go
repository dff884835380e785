package autosave

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"vidstudio-backend/internal/models"
)

// Fingerprint summarizes the persist-relevant subset of a project: id, title
// and every document field. Thumbnail is excluded (volatile, regenerated
// opportunistically), as are both timestamps (the save path rewrites
// updated_at itself, which would make every save self-dirtying).
//
// The same document always yields the same fingerprint: json.Marshal emits
// map keys in sorted order, so effect params hash deterministically.
func Fingerprint(p *models.EditorProject) string {
	subset := struct {
		ID       string                 `json:"id"`
		Title    string                 `json:"title"`
		Document models.ProjectDocument `json:"document"`
	}{p.ID, p.Title, p.ProjectDocument}

	data, err := json.Marshal(subset)
	if err != nil {
		// Not reachable for these types; an empty fingerprint just means
		// "always dirty", which errs on the side of saving.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
