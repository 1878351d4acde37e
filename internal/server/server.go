// Package server is the request framing layer: it parses and
// validates /print calls and hands normalized requests to the
// coordinator. No printer errors leak to callers unconverted.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"timini-print/internal/layout"
	"timini-print/internal/print"
)

// Printer runs one print job. Implemented by print.Coordinator.
type Printer interface {
	Print(ctx context.Context, req print.Request) error
}

type Server struct {
	printer      Printer
	maxBodyBytes int64
	log          zerolog.Logger
}

func New(printer Printer, maxBodyBytes int64, log zerolog.Logger) *Server {
	return &Server{printer: printer, maxBodyBytes: maxBodyBytes, log: log}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/print", s.handlePrint)
	r.POST("/print", s.handlePrint)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found; use GET /print?text=...&qr=... or POST /print with a JSON body"})
	})
	return r
}

func (s *Server) handlePrint(c *gin.Context) {
	req, ok := s.extractRequest(c)
	if !ok {
		return // error response already written
	}

	if err := s.printer.Print(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "print failed, check server logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// extractRequest normalizes query or body input into a print.Request.
// Query parameters win over the body. The presence of the qr key, not
// its value, selects QR mode; with qr present and no display text the
// text defaults to the qr payload.
func (s *Server) extractRequest(c *gin.Context) (print.Request, bool) {
	text, textPresent := c.GetQuery("text")
	qr, qrPresent := c.GetQuery("qr")

	if !textPresent && !qrPresent {
		if c.Request.Method != http.MethodPost {
			s.reject(c, http.StatusBadRequest, "missing text and qr parameters")
			return print.Request{}, false
		}
		var ok bool
		text, textPresent, qr, qrPresent, ok = s.extractBody(c)
		if !ok {
			return print.Request{}, false
		}
	}

	if qrPresent {
		if strings.TrimSpace(qr) == "" {
			s.reject(c, http.StatusBadRequest, "empty qr payload")
			return print.Request{}, false
		}
		if !textPresent || strings.TrimSpace(text) == "" {
			text = qr
		}
	} else {
		qr = ""
	}

	if strings.TrimSpace(text) == "" {
		s.reject(c, http.StatusBadRequest, "empty text")
		return print.Request{}, false
	}

	return print.Request{Text: text, QR: qr}, true
}

func (s *Server) extractBody(c *gin.Context) (text string, textPresent bool, qr string, qrPresent bool, ok bool) {
	if c.Request.ContentLength > s.maxBodyBytes {
		s.reject(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body too large (max %d bytes)", s.maxBodyBytes))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, s.maxBodyBytes+1))
	if err != nil || int64(len(raw)) > s.maxBodyBytes {
		s.reject(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body too large (max %d bytes)", s.maxBodyBytes))
		return
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		s.reject(c, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	textRaw, textPresent := body["text"]
	qrRaw, qrPresent := body["qr"]
	if !textPresent && !qrPresent {
		s.reject(c, http.StatusBadRequest, `JSON body must contain "text" and/or "qr"`)
		return
	}

	// Structured values (objects/arrays) flatten to display text.
	if textPresent {
		if text, err = layout.FlattenJSON(textRaw); err != nil {
			s.reject(c, http.StatusBadRequest, "invalid text value")
			return
		}
	}
	if qrPresent {
		if qr, err = layout.FlattenJSON(qrRaw); err != nil {
			s.reject(c, http.StatusBadRequest, "invalid qr value")
			return
		}
	}
	ok = true
	return
}

func (s *Server) reject(c *gin.Context, status int, msg string) {
	s.log.Warn().Str("remote", c.ClientIP()).Int("status", status).Msg(msg)
	c.JSON(status, gin.H{"error": msg})
}
