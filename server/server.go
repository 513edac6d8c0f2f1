// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolver and the stored results over a local
// HTTP interface.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"geoconv/batch"
	"geoconv/geocode"
	"geoconv/results"
)

type Server struct {
	repo     results.Repository
	resolver *geocode.Resolver
}

func NewServer(repo results.Repository, resolver *geocode.Resolver) *Server {
	return &Server{
		repo:     repo,
		resolver: resolver,
	}
}

func (s *Server) Run(addr string) error {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").ParseGlob("templates/*.html")))

	s.registerRoutes(r)

	log.Printf("Listening on http://%s", addr)

	return r.Run(addr)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/", s.indexView)
	r.POST("/api/geocode", s.geocodeAddress)
	r.POST("/api/batch", s.geocodeBatch)
	r.POST("/api/batch/upload", s.geocodeUpload)
	r.GET("/api/results", s.listResults)
	r.GET("/api/results.csv", s.exportResults)
	r.GET("/api/progress", s.getProgress)
}

func (s *Server) indexView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "geocode.html", nil)
}

type GeocodeRequest struct {
	Address string `json:"address"`
}

func (s *Server) geocodeAddress(ctx *gin.Context) {
	var req GeocodeRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if strings.TrimSpace(req.Address) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})

		return
	}

	resolution := s.resolver.Resolve(ctx.Request.Context(), req.Address)

	if err := s.repo.BulkInsert([]*results.Record{results.FromResolution(resolution)}); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, resolution)
}

type BatchRequest struct {
	Addresses []string `json:"addresses"`
}

type BatchResponse struct {
	Resolutions []geocode.Resolution `json:"resolutions"`
	Resolved    int                  `json:"resolved"`
	NotFound    int                  `json:"not_found"`
	Skipped     int                  `json:"skipped"`
}

func (s *Server) geocodeBatch(ctx *gin.Context) {
	var req BatchRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if len(req.Addresses) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "addresses is required"})

		return
	}

	s.runBatch(ctx, req.Addresses)
}

// geocodeUpload accepts a multipart CSV or XLSX file with an `address`
// column and resolves every row.
func (s *Server) geocodeUpload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})

		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer f.Close()

	var addresses []string

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".xlsx":
		addresses, err = batch.ReadXLSX(f)
	case ".csv":
		addresses, err = batch.ReadCSV(f)
	default:
		addresses, err = batch.ReadLines(f)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, batch.ErrMissingAddressColumn) {
			status = http.StatusBadRequest
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	if len(addresses) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no addresses found in file"})

		return
	}

	s.runBatch(ctx, addresses)
}

func (s *Server) runBatch(ctx *gin.Context, addresses []string) {
	runner := &batch.Runner{Resolver: s.resolver}

	resolutions := runner.Run(ctx.Request.Context(), addresses)

	records := make([]*results.Record, 0, len(resolutions))
	for _, resolution := range resolutions {
		records = append(records, results.FromResolution(resolution))
	}

	if err := s.repo.BulkInsert(records); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, BatchResponse{
		Resolutions: resolutions,
		Resolved:    runner.Metrics.Resolved,
		NotFound:    runner.Metrics.NotFound,
		Skipped:     runner.Metrics.Skipped,
	})
}

func (s *Server) listResults(ctx *gin.Context) {
	page := 1
	perPage := 50

	if p := ctx.Query("page"); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &page); err != nil || page < 1 {
			page = 1
		}
	}

	if pp := ctx.Query("per_page"); pp != "" {
		if _, err := fmt.Sscanf(pp, "%d", &perPage); err != nil || perPage < 1 {
			perPage = 50
		}
	}

	offset := (page - 1) * perPage

	records, err := s.repo.List(perPage, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	total, err := s.repo.Count()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"results":  records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (s *Server) exportResults(ctx *gin.Context) {
	records, err := s.repo.ListAll()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", results.CSVFilename))

	if err := results.WriteCSV(ctx.Writer, records); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("Error writing CSV export: %v", err)
	}
}

func (s *Server) getProgress(ctx *gin.Context) {
	stats, err := s.repo.Progress()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, stats)
}
