package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type addPhoneRequest struct {
	Number    string `json:"number" binding:"required,max=32"`
	Type      string `json:"type" binding:"required,phonetype"`
	IsPrimary bool   `json:"isPrimary"`
}

type phoneResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Type      string    `json:"type"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPhoneResponse(p *models.Phone) phoneResponse {
	return phoneResponse{
		ID:        p.ID,
		Number:    p.Number,
		Type:      string(p.Type),
		IsPrimary: p.IsPrimary,
		CreatedAt: p.CreatedAt,
	}
}

func (h *Handler) ListPhones(c *gin.Context) {
	phones, err := h.phones.List(c.Request.Context(), principalFrom(c).Identity)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]phoneResponse, 0, len(phones))
	for _, p := range phones {
		out = append(out, toPhoneResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetPhone(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		h.writeError(c, common.ErrorNotFound)
		return
	}

	p, err := h.phones.Get(c.Request.Context(), principalFrom(c).Identity, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPhoneResponse(p))
}

func (h *Handler) AddPhone(c *gin.Context) {
	var req addPhoneRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := h.phones.Add(c.Request.Context(), principalFrom(c).Identity, services.PhoneInput{
		Number:    req.Number,
		Type:      models.PhoneType(req.Type),
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPhoneResponse(p))
}

func (h *Handler) DeletePhone(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		h.writeError(c, common.ErrorNotFound)
		return
	}

	if err := h.phones.Delete(c.Request.Context(), principalFrom(c).Identity, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// phoneID rejects ids that are not UUIDs; they cannot name a stored phone.
func phoneID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
