package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edirooss/dabdns-bridge/internal/spi"
	"github.com/edirooss/dabdns-bridge/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearersHandler decodes explicit bearer identity strings.
type BearersHandler struct {
	log *zap.Logger
}

// NewBearersHandler constructs a BearersHandler instance.
func NewBearersHandler(log *zap.Logger) *BearersHandler {
	return &BearersHandler{log: log.Named("bearers")}
}

type decodeBearerReq struct {
	Bearer string `json:"bearer"`
}

type decodeBearerResp struct {
	Kind      string `json:"kind"`
	Canonical string `json:"canonical"`
	GCC       string `json:"gcc,omitempty"`

	ECC   *int `json:"ecc,omitempty"`
	EId   *int `json:"eid,omitempty"`
	SId   *int `json:"sid,omitempty"`
	SCIdS *int `json:"scids,omitempty"`
	XPAD  *int `json:"xpad,omitempty"`

	PI        *int `json:"pi,omitempty"`
	Frequency *int `json:"frequency,omitempty"`

	URI string `json:"uri,omitempty"`
}

// DecodeBearer handles POST /api/bearers/decode.
//
// Status Codes:
//   - 200 OK          → decoded identity
//   - 400 Bad Request → malformed body or bearer string
func (h *BearersHandler) DecodeBearer(c *gin.Context) {
	var req decodeBearerReq
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	b, err := spi.ParseBearer(req.Bearer)
	if err != nil {
		if !errors.Is(err, spi.ErrInvalidBearer) {
			h.log.Warn("unexpected decode failure", zap.Error(err))
		}
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	resp := decodeBearerResp{
		Kind:      b.Kind.String(),
		Canonical: b.String(),
	}
	switch b.Kind {
	case spi.BearerDAB:
		resp.GCC = hex3(b.GCC())
		resp.ECC, resp.EId, resp.SId = intp(b.ECC), intp(b.EId), intp(b.SId)
		resp.SCIdS = intp(b.SCIdS)
		resp.XPAD = b.XPAD
	case spi.BearerFM:
		resp.GCC = hex3(b.GCC())
		resp.ECC, resp.PI, resp.Frequency = intp(b.ECC), intp(b.PI), intp(b.Frequency)
	case spi.BearerIP:
		resp.URI = b.URI
	}
	c.JSON(http.StatusOK, resp)
}

func intp(v int) *int { return &v }

func hex3(v int) string { return fmt.Sprintf("%03x", v) }
