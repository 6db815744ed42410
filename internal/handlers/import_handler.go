package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// MaxUploadSize caps uploaded data files (32MB)
const MaxUploadSize = 32 << 20

type ImportHandler struct {
	importer  *importer.Importer
	jobs      importer.Jobs
	settings  importer.Settings
	uploadDir string
	logger    *logrus.Logger
}

func NewImportHandler(imp *importer.Importer, jobs importer.Jobs, settings importer.Settings, uploadDir string, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importer:  imp,
		jobs:      jobs,
		settings:  settings,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// settingsOverrides lets one run deviate from the configured defaults.
type settingsOverrides struct {
	Transaction             *bool   `json:"transaction,omitempty"`
	CreateVariants          *bool   `json:"createVariants,omitempty"`
	VariantComparatorField  *string `json:"variantComparatorField,omitempty"`
	DestroyOriginalProducts *bool   `json:"destroyOriginalProducts,omitempty"`
	CreateMissingTaxonomies *bool   `json:"createMissingTaxonomies,omitempty"`
	FirstRowIsHeadings      *bool   `json:"firstRowIsHeadings,omitempty"`
	RowsToSkip              *int    `json:"rowsToSkip,omitempty"`
	MultiDomainImporting    *bool   `json:"multiDomainImporting,omitempty"`
	StoreField              *string `json:"storeField,omitempty"`
	LogTo                   *string `json:"logTo,omitempty"`
}

func (o *settingsOverrides) apply(s importer.Settings) importer.Settings {
	if o.Transaction != nil {
		s.Transaction = *o.Transaction
	}
	if o.CreateVariants != nil {
		s.CreateVariants = *o.CreateVariants
	}
	if o.VariantComparatorField != nil {
		s.VariantComparatorField = *o.VariantComparatorField
	}
	if o.DestroyOriginalProducts != nil {
		s.DestroyOriginalProducts = *o.DestroyOriginalProducts
	}
	if o.CreateMissingTaxonomies != nil {
		s.CreateMissingTaxonomies = *o.CreateMissingTaxonomies
	}
	if o.FirstRowIsHeadings != nil {
		s.FirstRowIsHeadings = *o.FirstRowIsHeadings
	}
	if o.RowsToSkip != nil {
		s.RowsToSkip = *o.RowsToSkip
	}
	if o.MultiDomainImporting != nil {
		s.MultiDomainImporting = *o.MultiDomainImporting
	}
	if o.StoreField != nil {
		s.StoreField = *o.StoreField
	}
	if o.LogTo != nil {
		s.LogTo = *o.LogTo
	}
	return s
}

// CreateImport accepts an uploaded CSV and creates an import job in state
// "created"; the run itself is triggered separately.
// POST /api/v1/product-imports
func (h *ImportHandler) CreateImport(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV file",
			},
		})
		return
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %dMB limit", MaxUploadSize>>20),
			},
		})
		return
	}

	jobID := uuid.New()
	destination := filepath.Join(h.uploadDir, jobID.String()+".csv")
	if err := saveUpload(file, destination); err != nil {
		h.logger.WithError(err).Error("could not store uploaded data file")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Could not store the uploaded file",
			},
		})
		return
	}

	job := &models.ImportJob{
		ID:                  jobID,
		DataFileName:        header.Filename,
		DataFilePath:        destination,
		DataFileContentType: header.Header.Get("Content-Type"),
		DataFileSize:        header.Size,
		State:               models.ImportStateCreated,
		ProductIDs:          models.StringArray{},
	}
	if err := h.jobs.Save(job); err != nil {
		h.logger.WithError(err).Error("could not create import job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "JOB_CREATE_FAILED",
				Message: "Could not create the import job",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.ImportJobResponse{Success: true, Data: job})
}

// RunImport executes a created job. The request body may override run
// settings; an empty body runs with the configured defaults.
// POST /api/v1/product-imports/:id/run
func (h *ImportHandler) RunImport(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	settings := h.settings
	var overrides settingsOverrides
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&overrides); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_SETTINGS",
					Message: err.Error(),
				},
			})
			return
		}
		settings = overrides.apply(settings)
	}

	summary, err := h.importer.Run(c.Request.Context(), job, settings)
	if err != nil {
		var importErr *models.ImportError
		message := err.Error()
		if errors.As(err, &importErr) {
			message = importErr.Message
		}
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Success:   false,
			Timestamp: time.Now().Format(time.RFC3339),
			Error: models.Error{
				Code:    "IMPORT_FAILED",
				Message: message,
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"job":     job,
			"summary": summary,
		},
	})
}

// GetImport returns one job's state, timestamps and created product ids.
// GET /api/v1/product-imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ImportJobResponse{Success: true, Data: job})
}

// ListImports returns all import jobs, newest first.
// GET /api/v1/product-imports
func (h *ImportHandler) ListImports(c *gin.Context) {
	jobs, err := h.jobs.List()
	if err != nil {
		h.logger.WithError(err).Error("could not list import jobs")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LIST_FAILED",
				Message: "Could not list import jobs",
			},
		})
		return
	}
	c.JSON(http.StatusOK, models.ImportJobListResponse{Success: true, Data: jobs})
}

// DeleteImport destroys a job and cascades over every product it created.
// DELETE /api/v1/product-imports/:id
func (h *ImportHandler) DeleteImport(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	result, err := h.jobs.Destroy(job.ID)
	if err != nil {
		h.logger.WithError(err).WithField("job", job.ID).Error("could not destroy import job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Could not destroy the import job",
			},
		})
		return
	}

	if err := os.Remove(job.DataFilePath); err != nil && !os.IsNotExist(err) {
		h.logger.WithError(err).WithField("path", job.DataFilePath).Warn("could not remove data file")
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/product-imports/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=product_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")

	f.SetCellValue("Instructions", "A3", "ROW ROUTING:")
	f.SetCellValue("Instructions", "A4", "- A row whose permalink matches an existing product becomes a variant of that product.")
	f.SetCellValue("Instructions", "A5", "- Any other row creates a new product.")
	f.SetCellValue("Instructions", "A6", "- category accepts a hierarchy like \"Clothing > Shirts\"; \"&\" separates multiple branches.")
	f.SetCellValue("Instructions", "A7", "- Image columns accept http(s) URLs or filenames under the configured image directory.")

	f.SetCellValue("Instructions", "A9", "Column Definitions:")
	f.SetCellValue("Instructions", "A10", "Column")
	f.SetCellValue("Instructions", "B10", "Description")
	f.SetCellValue("Instructions", "C10", "Required")
	f.SetCellValue("Instructions", "D10", "Type")
	f.SetCellValue("Instructions", "E10", "Example")

	for i, col := range template.Columns {
		row := i + 11
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=product_import_template.xlsx")

	f.Write(c.Writer)
}

func (h *ImportHandler) lookupJob(c *gin.Context) (*models.ImportJob, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Import job id must be a UUID",
				Field:   "id",
			},
		})
		return nil, false
	}

	job, err := h.jobs.GetByID(id)
	if err != nil {
		h.logger.WithError(err).WithField("job", id).Error("could not load import job")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LOOKUP_FAILED",
				Message: "Could not load the import job",
			},
		})
		return nil, false
	}
	if job == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Import job not found",
			},
		})
		return nil, false
	}
	return job, true
}

func saveUpload(src io.Reader, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	out, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}
