package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Resume identifies one of the downloadable resumes.
type Resume struct {
	File         string
	DownloadName string
}

// Downloadable resumes, relative to the static directory
var (
	ResumeWebDeveloper = Resume{
		File:         filepath.Join("resumes", "web_developer_resume.pdf"),
		DownloadName: "Web_Developer_Resume.pdf",
	}
	ResumeSoftwareDeveloper = Resume{
		File:         filepath.Join("resumes", "software_developer_resume.pdf"),
		DownloadName: "Software_Developer_Resume.pdf",
	}
)

// certificates maps certificate ids to their file under the static directory.
var certificates = map[int]string{
	1: filepath.Join("certificates", "certificate_1.pdf"),
	2: filepath.Join("certificates", "certificate_2.pdf"),
}

// DownloadResume returns a handler sending r as an attachment.
func (h *Handler) DownloadResume(r Resume) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.sendAttachment(c, r.File, r.DownloadName, "Resume file not found")
	}
}

// DownloadCertificate handles GET /download/certificate/:id
func (h *Handler) DownloadCertificate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	file, ok := certificates[id]
	if err != nil || !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Certificate not found"})
		return
	}
	h.sendAttachment(c, file, "Certificate_"+strconv.Itoa(id)+".pdf", "Certificate not found")
}

func (h *Handler) sendAttachment(c *gin.Context, rel, downloadName, missing string) {
	path := filepath.Join(h.staticDir, rel)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		h.logger.Warn("download file missing", zap.String("path", path))
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": missing})
		return
	}
	c.FileAttachment(path, downloadName)
}
