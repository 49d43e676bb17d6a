package webserver

import (
	"crypto/ed25519"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veilspire/realmgov/src/discordsig"
	"github.com/veilspire/realmgov/src/interactions"
)

type Interactions struct {
	key    ed25519.PublicKey
	router *interactions.Router
}

func NewInteractions(key ed25519.PublicKey, router *interactions.Router) Interactions {
	return Interactions{key: key, router: router}
}

// Handle verifies the request signature over the raw body before any parsing
// happens, then dispatches. A bad or missing signature is terminal.
func (h Interactions) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body", "code": "bad_request"})
		return
	}

	sig := c.GetHeader("X-Signature-Ed25519")
	ts := c.GetHeader("X-Signature-Timestamp")
	if !discordsig.Verify(h.key, ts, body, sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request signature", "code": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, h.router.Dispatch(c.Request.Context(), body))
}
