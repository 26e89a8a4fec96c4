package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type providerInfo struct {
	Name        string   `json:"name"`
	Default     bool     `json:"default"`
	Formats     []string `json:"formats"`
	MaxFileSize int64    `json:"max_file_size"`
}

func (s *Server) ListProviders(c *gin.Context) {
	defaultProvider := s.sttSvc.DefaultProvider()

	providers := make([]providerInfo, 0)
	for _, name := range s.sttSvc.AvailableProviders() {
		formats, err := s.sttSvc.SupportedFormats(name)
		if err != nil {
			continue
		}
		maxSize, err := s.sttSvc.MaxFileSize(name)
		if err != nil {
			continue
		}
		providers = append(providers, providerInfo{
			Name:        name,
			Default:     name == defaultProvider,
			Formats:     formats,
			MaxFileSize: maxSize,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"providers":   providers,
		"default":     defaultProvider,
		"all_formats": s.sttSvc.AllSupportedFormats(),
	})
}

func (s *Server) GetProviderFormats(c *gin.Context) {
	name := strings.ToLower(c.Param("name"))

	formats, err := s.sttSvc.SupportedFormats(name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	maxSize, err := s.sttSvc.MaxFileSize(name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":      name,
		"formats":       formats,
		"max_file_size": maxSize,
	})
}
