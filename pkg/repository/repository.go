// Package repository implements the persistence repositories of strata.
//
// Every repository method takes the *scope.Scope it runs in as its first
// argument; repositories hold no connection or transaction of their own and
// are safe to share. Reads go through the scope's cache batch first, writes
// update the batch after the row has been written, and the batch reaches the
// shared cache only when the scope commits.
//
// Not-found lookups return a nil entity and a nil error. Mutations of a
// missing row return models.ErrNotFound. Uniqueness violations are returned
// exactly as the database reported them; see database.IsUniqueViolation.
package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/internal/telemetry"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

// Repositories bundles one instance of every repository.
type Repositories struct {
	DocumentTypeContainers *EntityContainerRepository
	MediaTypeContainers    *EntityContainerRepository
	DataTypeContainers     *EntityContainerRepository

	DocumentTypes *ContentTypeRepository
	MediaTypes    *ContentTypeRepository
	MemberTypes   *ContentTypeRepository

	Documents *ContentRepository
	Elements  *ContentRepository
	Media     *ContentRepository
	Members   *ContentRepository

	Tags          *TagRepository
	Relations     *RelationRepository
	RelationTypes *RelationTypeRepository

	Languages    *LanguageRepository
	Domains      *DomainRepository
	RedirectURLs *RedirectURLRepository
	Dictionary   *DictionaryRepository

	Macros              *MacroRepository
	ServerRegistrations *ServerRegistrationRepository

	CacheInstructions     *CacheInstructionRepository
	Audit                 *AuditRepository
	LongRunningOperations *LongRunningOperationRepository

	UserGroups *UserGroupRepository
	Users      *UserRepository
}

// New creates every repository.
func New() *Repositories {
	return &Repositories{
		DocumentTypeContainers: NewEntityContainerRepository(models.ObjectTypeDocumentTypeContainer),
		MediaTypeContainers:    NewEntityContainerRepository(models.ObjectTypeMediaTypeContainer),
		DataTypeContainers:     NewEntityContainerRepository(models.ObjectTypeDataTypeContainer),

		DocumentTypes: NewContentTypeRepository(models.ObjectTypeDocumentType),
		MediaTypes:    NewContentTypeRepository(models.ObjectTypeMediaType),
		MemberTypes:   NewContentTypeRepository(models.ObjectTypeMemberType),

		Documents: NewContentRepository(models.ObjectTypeDocument),
		Elements:  NewContentRepository(models.ObjectTypeElement),
		Media:     NewContentRepository(models.ObjectTypeMedia),
		Members:   NewContentRepository(models.ObjectTypeMember),

		Tags:          NewTagRepository(),
		Relations:     NewRelationRepository(),
		RelationTypes: NewRelationTypeRepository(),

		Languages:    NewLanguageRepository(),
		Domains:      NewDomainRepository(),
		RedirectURLs: NewRedirectURLRepository(),
		Dictionary:   NewDictionaryRepository(),

		Macros:              NewMacroRepository(),
		ServerRegistrations: NewServerRegistrationRepository(),

		CacheInstructions:     NewCacheInstructionRepository(),
		Audit:                 NewAuditRepository(),
		LongRunningOperations: NewLongRunningOperationRepository(),

		UserGroups: NewUserGroupRepository(),
		Users:      NewUserRepository(),
	}
}

// Cache region names.
const (
	regionTag                = "tag"
	regionRelation           = "relation"
	regionRelationType       = "relation-type"
	regionLanguage           = "language"
	regionDomain             = "domain"
	regionRedirectURL        = "redirect-url"
	regionDictionary         = "dictionary"
	regionMacro              = "macro"
	regionServerRegistration = "server-registration"
	regionUserGroup          = "user-group"
	regionUser               = "user"
)

// nodeRegion is the cache region of node-backed entities of one object type.
func nodeRegion(t models.ObjectType) string { return "node:" + string(t) }

// now is the repository clock. Stored times are UTC so that they compare
// consistently as SQLite text.
func now() time.Time { return time.Now().UTC() }

// observe records an operation's outcome. Use with defer and a named error.
func observe(s *scope.Scope, repo, op string, start time.Time, err *error) {
	elapsed := time.Since(start)
	telemetry.RecordOperation(s.Context(), repo, op, elapsed, *err)
	if m := s.Metrics(); m != nil {
		m.ObserveOperation(repo, op, elapsed, *err)
	}
}

// notFound maps gorm's record-not-found to models.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

// invalid wraps models.ErrInvalidOperation with detail.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), models.ErrInvalidOperation)
}

// updateRow writes every column of row, matched by primary key.
func updateRow(db *gorm.DB, row any) error {
	res := db.Model(row).Select("*").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func parseKey(s string) uuid.UUID {
	k, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return k
}

func keyString(k uuid.UUID) string { return k.String() }

// Nullable column helpers. Zero means NULL.

func nullInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// pathIDs splits a node path into ids, skipping the root.
func pathIDs(path string) []int {
	var ids []int
	for _, part := range strings.Split(path, ",") {
		id, err := strconv.Atoi(part)
		if err == nil && id != models.RootID {
			ids = append(ids, id)
		}
	}
	return ids
}

func debug(s *scope.Scope, msg string, args ...any) {
	logger.DebugCtx(s.Context(), msg, args...)
}

func ensureKey(k uuid.UUID) uuid.UUID {
	if k == uuid.Nil {
		return uuid.New()
	}
	return k
}

// pluckFirst reads one column of the first row db selects.
func pluckFirst[T any](db *gorm.DB, column string) (v T, ok bool, err error) {
	var vals []T
	if err := db.Limit(1).Pluck(column, &vals).Error; err != nil || len(vals) == 0 {
		return v, false, err
	}
	return vals[0], true, nil
}
