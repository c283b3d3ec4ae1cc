package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/deckwash/deckwash/convert"
	"github.com/deckwash/deckwash/history"
	"github.com/deckwash/deckwash/watermark"
)

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/convert", s.handleConvert)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)
	s.mux.HandleFunc("GET /api/jobs/{id}/download", s.handleJobDownload)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Warnf("failed to write response: %s", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.toolCheck != nil {
		if err := s.toolCheck(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "%s", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert accepts one multipart PDF upload and starts a conversion job.
// Optional form fields: dpi, format, region.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field: %s", err)
		return
	}
	defer file.Close()

	if err = checkUploadIsPDF(file, header); err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}

	options, err := optionsFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}

	job, err := s.jobs.create(filepath.Base(header.Filename), options.Format, options.DPI)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%s", err)
		return
	}

	inputPath := s.uploadPath(job.ID)
	if err = saveUpload(file, inputPath); err != nil {
		// the job is already registered, it must not stay pending forever
		s.jobs.update(job.ID, func(j *Job) {
			j.Status = JobStatusFailed
			j.Error = "failed to store upload"
		})
		writeError(w, http.StatusInternalServerError, "failed to store upload: %s", err)
		return
	}

	outputPath := s.resultPath(job.ID, options.Format)
	s.jobs.update(job.ID, func(j *Job) {
		j.inputPath = inputPath
		j.outputPath = outputPath
	})

	// respond with a snapshot, runJob updates the live job concurrently
	snapshot, _ := s.jobs.get(job.ID)

	go s.runJob(job.ID, inputPath, outputPath, options)

	writeJSON(w, http.StatusAccepted, snapshot)
}

// optionsFromForm reads conversion options from upload form fields and
// normalizes them, so malformed values are rejected before a job is created.
func optionsFromForm(r *http.Request) (convert.Options, error) {
	options := convert.Options{}

	if value := r.FormValue("dpi"); value != "" {
		dpi, err := strconv.Atoi(value)
		if err != nil {
			return options, fmt.Errorf("invalid dpi value: %q", value)
		}
		options.DPI = dpi
	}

	options.Format = r.FormValue("format")

	if value := r.FormValue("region"); value != "" {
		region, err := watermark.ParseRegion(value)
		if err != nil {
			return options, err
		}
		options.Regions = []watermark.Region{region}
	}

	return convert.NormalizeOptions(options)
}

// checkUploadIsPDF verifies both file extension and content magic.
func checkUploadIsPDF(file multipart.File, header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" {
		return fmt.Errorf("only PDF uploads are accepted, got: %q", header.Filename)
	}

	magic := make([]byte, 5)
	if _, err := io.ReadFull(file, magic); err != nil {
		return fmt.Errorf("failed to read upload: %s", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %s", err)
	}

	if string(magic) != "%PDF-" {
		return fmt.Errorf("upload is not a PDF document")
	}

	return nil
}

func saveUpload(file multipart.File, outputName string) error {
	output, err := os.Create(outputName)
	if err != nil {
		return err
	}
	defer output.Close()

	_, err = io.Copy(output, file)

	return err
}

// runJob executes the pipeline for one job and records the terminal state.
func (s *Server) runJob(jobID string, inputPath string, outputPath string, options convert.Options) {
	// job lifetime is not tied to the upload request
	result, err := s.pipeline.Run(
		context.Background(),
		inputPath, outputPath, options,
		func(fraction float64, phase string) {
			s.jobs.setProgress(jobID, fraction, phase)
		},
	)

	record := &history.Record{
		JobID:  jobID,
		Format: options.Format,
		DPI:    options.DPI,
	}

	if err != nil {
		log.Errorf("job %s failed: %s", jobID, err)

		s.jobs.update(jobID, func(j *Job) {
			j.Status = JobStatusFailed
			j.Error = err.Error()
			record.Input = j.FileName
		})
		record.Status = history.StatusFailed
		record.Error = err.Error()
	} else {
		log.Infof("job %s finished: %s", jobID, result.OutputName)

		s.jobs.update(jobID, func(j *Job) {
			j.Status = JobStatusSucceeded
			j.Fraction = 1
			j.Phase = "done"
			j.Pages = result.Pages
			record.Input = j.FileName
		})
		record.Status = history.StatusSucceeded
		record.Output = filepath.Base(result.OutputName)
		record.Pages = result.Pages
		record.Elapsed = result.Elapsed
	}

	if s.db != nil {
		if err := history.Append(s.db, record); err != nil {
			log.Warnf("%s", err)
		}
	}

	// the upload is no longer needed once the job reaches a terminal state
	if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove upload %s: %s", inputPath, err)
	}
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such job")
		return
	}

	if job.Status != JobStatusSucceeded {
		writeError(w, http.StatusConflict, "job is not finished: %s", job.Status)
		return
	}

	stem := strings.TrimSuffix(job.FileName, filepath.Ext(job.FileName))
	downloadName := stem + "_converted." + job.Format

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeFile(w, r, job.outputPath)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, []history.Record{})
		return
	}

	limit := 50
	if value := r.URL.Query().Get("limit"); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := history.Recent(s.db, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%s", err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}
