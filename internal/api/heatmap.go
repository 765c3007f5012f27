package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/report"
	"github.com/rickgao/gift-heatmap/internal/transform"
)

var artifactName = regexp.MustCompile(`^heatmap-\d+\.jpeg$`)

// Preview renders the selected chart as a PNG.
func (h *Handler) Preview(c *gin.Context) {
	q, sel, ok := h.bindQuery(c)
	if !ok {
		return
	}

	w, hgt := q.Width, q.Height
	if w <= 0 || hgt <= 0 {
		w, hgt = h.cfg.PreviewWidth, h.cfg.PreviewHeight
	}
	if w > MaxPreviewWidth || hgt > MaxPreviewHeight {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("preview is limited to %dx%d", MaxPreviewWidth, MaxPreviewHeight)})
		return
	}

	data, err := h.exporter.Preview(c.Request.Context(), h.request(sel, nil), w, hgt)
	if err != nil {
		h.logger.Error("preview failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Export runs the export pipeline for the selected chart.
func (h *Handler) Export(c *gin.Context) {
	_, sel, ok := h.bindQuery(c)
	if !ok {
		return
	}

	var host export.Host
	if initData := c.GetHeader(InitDataHeader); initData != "" {
		if h.verifier == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "embedded export is not configured"})
			return
		}
		id, err := h.verifier.Verify(initData)
		if err != nil {
			h.logger.Warn("init data rejected", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
			return
		}
		host = export.StaticHost{ID: id.UserID()}
	}

	job, err := h.exporter.Export(c.Request.Context(), h.request(sel, host))
	if errors.Is(err, export.ErrExportInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "export already in progress", "state": h.exporter.State().String()})
		return
	}
	if err != nil {
		body := gin.H{"error": "export failed"}
		if job != nil {
			body = jobJSON(job)
			body["error"] = "export failed"
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, jobJSON(job))
}

// Items returns the selected chart's cells as an xlsx workbook.
func (h *Handler) Items(c *gin.Context) {
	_, sel, ok := h.bindQuery(c)
	if !ok {
		return
	}

	req := h.request(sel, nil)
	items := transform.Transform(req.Records, req.Options)

	var buf bytes.Buffer
	if err := report.Write(&buf, items, report.Options{
		ChartType:   sel.ChartType,
		TimeGap:     sel.TimeGap,
		Currency:    req.Options.Currency,
		GeneratedAt: h.now(),
	}); err != nil {
		h.logger.Error("items workbook failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "workbook failed"})
		return
	}

	name := fmt.Sprintf("heatmap-items-%d.xlsx", h.now().UnixMilli())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Artifact serves a saved export.
func (h *Handler) Artifact(c *gin.Context) {
	name := c.Param("name")
	if !artifactName.MatchString(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	path := filepath.Join(h.cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.FileAttachment(path, name)
}

func (h *Handler) bindQuery(c *gin.Context) (HeatmapQuery, transform.SelectOptions, bool) {
	var q HeatmapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, transform.SelectOptions{}, false
	}
	sel, err := q.Selection()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, sel, false
	}
	return q, sel, true
}

func (h *Handler) request(sel transform.SelectOptions, host export.Host) export.Request {
	return export.Request{
		Records: transform.Select(h.records.Records(), sel),
		Options: transform.OptionsFor(sel, h.records.Reference()),
		Host:    host,
	}
}

func jobJSON(job *model.ExportJob) gin.H {
	body := gin.H{
		"id":       job.ID.String(),
		"state":    job.State.String(),
		"platform": job.Platform.String(),
		"delivery": job.Delivery.String(),
		"width":    job.TargetWidth,
		"height":   job.TargetHeight,
		"bytes":    job.ArtifactSize,
	}
	if job.Artifact != "" {
		body["download"] = "/api/v1/exports/" + filepath.Base(job.Artifact)
	}
	if job.Err != nil && job.State == model.ExportFailedWithFallback {
		body["warning"] = "sending failed, the heatmap was saved for download"
	}
	return body
}
