package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/services"
)

// userHeader identifies the authenticated caller on every request after
// login. The directory resolves it to a (user, role) pair which is stored on
// the request context; handlers never read ambient session state.
const userHeader = "X-User-ID"

const contextUserKey = "currentUser"

type LibraryHandler struct {
	catalog     services.CatalogService
	circulation services.CirculationService
	directory   services.DirectoryService
}

func RegisterRoutes(
	r *gin.Engine,
	catalog services.CatalogService,
	circulation services.CirculationService,
	directory services.DirectoryService,
) {
	h := &LibraryHandler{
		catalog:     catalog,
		circulation: circulation,
		directory:   directory,
	}

	r.POST("/auth/login", h.login)

	// Catalog reads, open to any authenticated user.
	authed := r.Group("/", h.authenticate())
	authed.GET("/books", h.listAllBooks)
	authed.GET("/books/available", h.listAvailableBooks)
	authed.GET("/books/search", h.searchBooks)

	// Personal loan views: a user sees their own, an admin sees anyone's.
	authed.GET("/users/:id/loans", h.listOpenLoans)
	authed.GET("/users/:id/returns", h.listReturnedLoans)
	authed.GET("/users/:id/fine", h.totalFine)

	// Administrator endpoints.
	admin := r.Group("/", h.authenticate(), h.requireRole(models.RoleAdmin))
	admin.POST("/books", h.addBook)
	admin.DELETE("/books/:id", h.removeBook)
	admin.POST("/transactions/issue", h.issueBook)
	admin.POST("/transactions/:id/return", h.returnBook)
	admin.GET("/admin/loans", h.allOpenLoans)
	admin.GET("/admin/returns", h.allReturnedLoans)
	admin.GET("/admin/borrowers", h.listBorrowers)
	admin.POST("/admin/students", h.registerStudent)
	admin.POST("/admin/employees", h.registerEmployee)
}

// ─── Middleware ───────────────────────────────────────────────────────────────

// authenticate resolves the caller's user id header through the directory
// and attaches the user record to the request context.
func (h *LibraryHandler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(userHeader))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + userHeader + " header"})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}
		user, err := h.directory.GetUser(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// requireRole rejects callers whose role is not in the allowed set.
func (h *LibraryHandler) requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(contextUserKey).(*models.User)
}

// errorStatus maps domain errors to HTTP statuses. Anything unrecognised is
// a storage-level failure and surfaces as 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateCode),
		errors.Is(err, services.ErrBookInUse),
		errors.Is(err, services.ErrBookUnavailable),
		errors.Is(err, services.ErrAlreadyReturned),
		errors.Is(err, services.ErrDuplicateAdmissionNumber),
		errors.Is(err, services.ErrDuplicateEmployee):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// ─── Authentication ───────────────────────────────────────────────────────────

type loginRequest struct {
	Role            models.Role `json:"role" binding:"required"`
	AdmissionNumber string      `json:"admission_number"`
	Name            string      `json:"name"`
	Department      string      `json:"department"`
	Phone           string      `json:"phone"`
	Password        string      `json:"password" binding:"required"`
}

func (h *LibraryHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	user, err := h.directory.Authenticate(req.Role, services.Credentials{
		AdmissionNumber: req.AdmissionNumber,
		Name:            req.Name,
		Department:      req.Department,
		Phone:           req.Phone,
		Password:        req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"role":    user.Role,
		"name":    user.DisplayName(),
	})
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

type addBookRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

func (h *LibraryHandler) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.catalog.AddBook(req.Title, req.Category, req.Author, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *LibraryHandler) removeBook(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	if err := h.catalog.RemoveBook(bookID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": bookID})
}

func (h *LibraryHandler) listAllBooks(c *gin.Context) {
	books, err := h.catalog.ListAll()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) listAvailableBooks(c *gin.Context) {
	books, err := h.catalog.ListAvailable()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) searchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		// The core treats an empty query as "no filter"; at the HTTP surface
		// it is a client mistake.
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	books, err := h.catalog.Search(query)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

// ─── Circulation ──────────────────────────────────────────────────────────────

type issueRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	BookID string `json:"book_id" binding:"required,uuid"`
}

func (h *LibraryHandler) issueBook(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := uuid.Parse(req.UserID)
	bookID, _ := uuid.Parse(req.BookID)

	txn, err := h.circulation.Issue(userID, bookID, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *LibraryHandler) returnBook(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	if err := h.circulation.Return(txnID, time.Now().UTC()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"returned": txnID})
}

// ─── Personal Views ───────────────────────────────────────────────────────────

// personalTarget parses the :id path parameter and checks the caller may
// view that user's data (self, or any user for admins).
func (h *LibraryHandler) personalTarget(c *gin.Context) (uuid.UUID, bool) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	user := currentUser(c)
	if user.Role != models.RoleAdmin && user.ID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot view another user's loans"})
		return uuid.Nil, false
	}
	return targetID, true
}

func (h *LibraryHandler) listOpenLoans(c *gin.Context) {
	userID, ok := h.personalTarget(c)
	if !ok {
		return
	}
	loans, err := h.circulation.OpenLoansFor(userID, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) listReturnedLoans(c *gin.Context) {
	userID, ok := h.personalTarget(c)
	if !ok {
		return
	}
	loans, err := h.circulation.ReturnedLoansFor(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) totalFine(c *gin.Context) {
	userID, ok := h.personalTarget(c)
	if !ok {
		return
	}
	total, err := h.circulation.TotalFineFor(userID, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "total_fine": total})
}

// ─── Administrator Views ──────────────────────────────────────────────────────

func (h *LibraryHandler) allOpenLoans(c *gin.Context) {
	loans, err := h.circulation.AllOpenLoans(time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) allReturnedLoans(c *gin.Context) {
	loans, err := h.circulation.AllReturnedLoans()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) listBorrowers(c *gin.Context) {
	users, err := h.directory.ListBorrowers()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ─── Registration ─────────────────────────────────────────────────────────────

type registerStudentRequest struct {
	AdmissionNumber string `json:"admission_number" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

func (h *LibraryHandler) registerStudent(c *gin.Context) {
	var req registerStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.directory.RegisterStudent(req.AdmissionNumber, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type registerEmployeeRequest struct {
	Name       string `json:"name" binding:"required"`
	Department string `json:"department" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *LibraryHandler) registerEmployee(c *gin.Context) {
	var req registerEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.directory.RegisterEmployee(req.Name, req.Department, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
