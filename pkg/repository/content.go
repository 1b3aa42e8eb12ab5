package repository

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// ContentRepository stores versioned content of one kind: documents,
// elements, media or members.
//
// Every node has exactly one current version row. Publishable kinds
// (documents and elements) also track the published version row:
//
//   - an ordinary save rewrites the current version in place;
//   - a save in StatePublishing turns the current version into the
//     published one and forks a new current version holding the same data;
//   - a save in StateUnpublishing clears the published version and writes
//     the current version in place.
//
// Media and members only ever have one version.
type ContentRepository struct {
	*Repository[*models.Content]
	objectType models.ObjectType
}

// NewContentRepository creates the repository for one content kind.
func NewContentRepository(objectType models.ObjectType) *ContentRepository {
	r := &ContentRepository{objectType: objectType}
	r.Repository = newRepository[*models.Content](r, nodeRegion(objectType),
		func() *models.Content { return &models.Content{} })
	return r
}

var contentFields = query.FieldMap(withNodeFields(map[string]string{
	"contentTypeId": "content.content_type_id",
	"versionId":     "content_versions.id",
	"versionDate":   "content_versions.version_date",
	"updateDate":    "content_versions.version_date",
	"published":     "documents.published",
	"edited":        "documents.edited",
	"email":         "members.email",
	"username":      "members.login_name",
}))

func (r *ContentRepository) name() string           { return string(r.objectType) }
func (r *ContentRepository) fields() query.FieldMap { return contentFields }
func (r *ContentRepository) idColumn() string       { return "nodes.id" }
func (r *ContentRepository) keyColumn() string      { return "nodes.unique_id" }

// GetUniqueName returns a name for the node ownID that does not collide with
// its siblings under parentID. Pass 0 as ownID for a node not yet saved.
func (r *ContentRepository) GetUniqueName(s *scope.Scope, parentID, ownID int, candidate string) (string, error) {
	return uniqueNodeName(s, r.objectType, parentID, ownID, candidate)
}

// ObjectType returns the content kind served by the repository.
func (r *ContentRepository) ObjectType() models.ObjectType { return r.objectType }

func (r *ContentRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return r.joined(s, "content_versions.current = ?", true)
}

// joined selects nodes of this kind joined to one version row per node,
// chosen by the version condition.
func (r *ContentRepository) joined(s *scope.Scope, versionCond string, args ...any) *gorm.DB {
	db := s.DB().Model(&dto.NodeDTO{}).
		Joins("JOIN content ON content.node_id = nodes.id").
		Joins("JOIN content_versions ON content_versions.node_id = nodes.id AND "+versionCond, args...).
		Joins("LEFT JOIN documents ON documents.node_id = nodes.id").
		Joins("LEFT JOIN members ON members.node_id = nodes.id")
	return db.Where("nodes.node_object_type = ?", string(r.objectType))
}

type contentRow struct {
	dto.NodeDTO
	ContentTypeID      int
	ContentTypeAlias   string
	VersionID          int
	VersionDate        time.Time
	VersionText        string
	Published          *bool
	Edited             *bool
	Email              *string
	LoginName          *string
	PublishedVersionID *int
}

const contentSelect = "nodes.*, content.content_type_id, content_types.alias AS content_type_alias, " +
	"content_versions.id AS version_id, content_versions.version_date, content_versions.text AS version_text, " +
	"documents.published, documents.edited, members.email, members.login_name, " +
	"(SELECT pv.id FROM content_versions pv WHERE pv.node_id = nodes.id AND pv.published = ?) AS published_version_id"

func (r *ContentRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Content, error) {
	return r.loadVersions(s, r.baseQuery(s), where, "nodes.id")
}

// loadVersions materializes one entity per selected (node, version) row.
func (r *ContentRepository) loadVersions(s *scope.Scope, db *gorm.DB, where clause.Expression, order string) ([]*models.Content, error) {
	db = db.Joins("LEFT JOIN content_types ON content_types.node_id = content.content_type_id").
		Select(contentSelect, true)
	if where != nil {
		db = db.Where(where)
	}
	var rows []contentRow
	if err := db.Order(order).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.Content, len(rows))
	versionIDs := make([]int, len(rows))
	byVersion := make(map[int]*models.Content, len(rows))
	for i := range rows {
		row := &rows[i]
		c := &models.Content{
			ObjectType:         r.objectType,
			ContentTypeID:      row.ContentTypeID,
			ContentTypeAlias:   row.ContentTypeAlias,
			VersionID:          row.VersionID,
			PublishedVersionID: intOrZero(row.PublishedVersionID),
			VersionDate:        row.VersionDate,
			Email:              stringOrEmpty(row.Email),
			Username:           stringOrEmpty(row.LoginName),
		}
		applyNode(&c.TreeEntityBase, &row.NodeDTO)
		c.Name = row.VersionText
		c.UpdateDate = row.VersionDate
		if row.Published != nil {
			c.Published = *row.Published
		}
		if row.Edited != nil {
			c.Edited = *row.Edited
		}
		if c.Published {
			c.PublishedState = models.StatePublished
		}
		out[i] = c
		versionIDs[i] = row.VersionID
		byVersion[row.VersionID] = c
	}

	if err := r.loadVersionData(s, versionIDs, byVersion); err != nil {
		return nil, err
	}
	return out, nil
}

// loadVersionData fills culture names and property values.
func (r *ContentRepository) loadVersionData(s *scope.Scope, versionIDs []int, byVersion map[int]*models.Content) error {
	db := s.DB()
	languages, err := languageIsoCodes(db)
	if err != nil {
		return err
	}

	var cultures []dto.ContentVersionCultureVariationDTO
	if err := db.Where("version_id IN ?", versionIDs).Order("id").Find(&cultures).Error; err != nil {
		return err
	}
	for _, cv := range cultures {
		if iso, ok := languages[cv.LanguageID]; ok {
			byVersion[cv.VersionID].SetCultureName(iso, cv.Name)
		}
	}

	type propertyRow struct {
		dto.PropertyDataDTO
		Alias        string
		ValueStorage string
	}
	var props []propertyRow
	if err := db.Model(&dto.PropertyDataDTO{}).
		Select("property_data.*, property_types.alias, property_types.value_storage").
		Joins("JOIN property_types ON property_types.id = property_data.property_type_id").
		Where("property_data.version_id IN ?", versionIDs).
		Order("property_types.sort_order, property_types.id, property_data.id").
		Scan(&props).Error; err != nil {
		return err
	}
	for i := range props {
		p := &props[i]
		c := byVersion[p.VersionID]
		prop := c.Property(p.Alias)
		if prop == nil {
			prop = &models.Property{PropertyTypeID: p.PropertyTypeID, Alias: p.Alias}
			c.Properties = append(c.Properties, prop)
		}
		culture := ""
		if p.LanguageID != nil {
			culture = languages[*p.LanguageID]
		}
		prop.Values = append(prop.Values, models.PropertyValue{
			Culture: culture,
			Segment: stringOrEmpty(p.Segment),
			Value:   valueFromRow(&p.PropertyDataDTO, models.ValueStorage(p.ValueStorage)),
		})
	}
	return nil
}

func valueFromRow(row *dto.PropertyDataDTO, storage models.ValueStorage) models.Value {
	switch storage {
	case models.StorageInteger:
		return models.Value{Int: row.IntValue}
	case models.StorageDecimal:
		return models.Value{Decimal: row.DecimalValue}
	case models.StorageDate:
		return models.Value{Date: row.DateValue}
	case models.StorageNtext:
		return models.Value{Text: row.TextValue}
	default:
		return models.Value{Text: row.VarcharValue}
	}
}

// storeValue writes v into the column selected by storage, converting
// between representations where needed.
func storeValue(row *dto.PropertyDataDTO, v models.Value, storage models.ValueStorage) error {
	switch storage {
	case models.StorageInteger:
		switch {
		case v.Int != nil:
			row.IntValue = v.Int
		case v.Text != nil:
			n, err := strconv.Atoi(*v.Text)
			if err != nil {
				return fmt.Errorf("value %q is not an integer", *v.Text)
			}
			row.IntValue = &n
		case v.Decimal != nil:
			n := int(*v.Decimal)
			row.IntValue = &n
		}
	case models.StorageDecimal:
		switch {
		case v.Decimal != nil:
			row.DecimalValue = v.Decimal
		case v.Int != nil:
			f := float64(*v.Int)
			row.DecimalValue = &f
		case v.Text != nil:
			f, err := strconv.ParseFloat(*v.Text, 64)
			if err != nil {
				return fmt.Errorf("value %q is not a decimal", *v.Text)
			}
			row.DecimalValue = &f
		}
	case models.StorageDate:
		switch {
		case v.Date != nil:
			d := v.Date.UTC()
			row.DateValue = &d
		case v.Text != nil:
			d, err := time.Parse(time.RFC3339, *v.Text)
			if err != nil {
				return fmt.Errorf("value %q is not a date", *v.Text)
			}
			d = d.UTC()
			row.DateValue = &d
		}
	default:
		text := v.Text
		if text == nil && !v.IsNull() {
			s := fmt.Sprint(v.Interface())
			text = &s
		}
		if storage == models.StorageNtext {
			row.TextValue = text
		} else {
			row.VarcharValue = text
		}
	}
	return nil
}

// languageIsoCodes maps language ids to iso codes.
func languageIsoCodes(db *gorm.DB) (map[int]string, error) {
	var langs []dto.LanguageDTO
	if err := db.Select("id", "iso_code").Find(&langs).Error; err != nil {
		return nil, err
	}
	out := make(map[int]string, len(langs))
	for _, l := range langs {
		out[l.ID] = l.IsoCode
	}
	return out, nil
}

func (r *ContentRepository) validate(c *models.Content) error {
	if c.ObjectType == "" {
		c.ObjectType = r.objectType
	}
	if c.ObjectType != r.objectType {
		return invalid("%s saved in %s repository", c.ObjectType, r.objectType)
	}
	if c.ContentTypeID == 0 {
		return invalid("content type is required")
	}
	return nil
}

func (r *ContentRepository) insert(s *scope.Scope, c *models.Content) error {
	if err := r.validate(c); err != nil {
		return err
	}
	ct, err := r.contentType(s, c.ContentTypeID)
	if err != nil {
		return err
	}
	c.ContentTypeAlias = ct.alias

	if err := insertNode(s, &c.TreeEntityBase, r.objectType); err != nil {
		return err
	}
	db := s.DB()
	if err := db.Create(&dto.ContentDTO{NodeID: c.ID, ContentTypeID: c.ContentTypeID}).Error; err != nil {
		return err
	}
	switch {
	case r.objectType.IsPublishable():
		if err := db.Create(&dto.DocumentDTO{NodeID: c.ID}).Error; err != nil {
			return err
		}
	case r.objectType == models.ObjectTypeMember:
		if err := db.Create(&dto.MemberDTO{NodeID: c.ID, Email: c.Email, LoginName: c.Username}).Error; err != nil {
			return err
		}
	}

	c.VersionID, c.PublishedVersionID = 0, 0
	c.Published, c.Edited = false, true
	if err := r.createVersion(s, c, ct); err != nil {
		return err
	}
	return r.applyPublishing(s, c, ct, true)
}

func (r *ContentRepository) update(s *scope.Scope, c *models.Content) error {
	if err := r.validate(c); err != nil {
		return err
	}
	ct, err := r.contentType(s, c.ContentTypeID)
	if err != nil {
		return err
	}
	c.ContentTypeAlias = ct.alias

	moved, err := updateNode(s, &c.TreeEntityBase)
	if err != nil {
		return err
	}
	if len(moved) > 1 {
		debug(s, "content moved with descendants", logger.KeyEntityID, c.ID, logger.KeyCount, len(moved)-1)
	}

	db := s.DB()
	if r.objectType == models.ObjectTypeMember {
		if err := updateRow(db, &dto.MemberDTO{NodeID: c.ID, Email: c.Email, LoginName: c.Username}); err != nil {
			return err
		}
	}

	var current dto.ContentVersionDTO
	if err := db.Where("node_id = ? AND current = ?", c.ID, true).First(&current).Error; err != nil {
		return notFound(err)
	}
	c.VersionID = current.ID
	if c.PublishedState == models.StatePublishing && r.objectType.IsPublishable() {
		return r.applyPublishing(s, c, ct, false)
	}
	if c.Published {
		c.Edited = true
	}
	if err := r.writeVersion(s, c, ct, &current); err != nil {
		return err
	}
	return r.applyPublishing(s, c, ct, false)
}

// applyPublishing executes the pending publishing transition of c, then
// writes the document flags. A publish stores c as a new version row that is
// both current and published; on insert the row just created is used.
func (r *ContentRepository) applyPublishing(s *scope.Scope, c *models.Content, ct *contentTypeInfo, inserted bool) error {
	if !r.objectType.IsPublishable() {
		c.PublishedState = models.StateUnpublished
		return nil
	}
	db := s.DB()

	switch c.PublishedState {
	case models.StatePublishing:
		if err := db.Model(&dto.ContentVersionDTO{}).Where("node_id = ? AND published = ?", c.ID, true).
			Update("published", false).Error; err != nil {
			return err
		}
		if !inserted {
			if err := r.createVersion(s, c, ct); err != nil {
				return err
			}
		}
		if err := db.Model(&dto.ContentVersionDTO{}).Where("id = ?", c.VersionID).
			Update("published", true).Error; err != nil {
			return err
		}
		c.PublishedVersionID = c.VersionID
		c.Published, c.Edited = true, false
		c.PublishedState = models.StatePublished
		debug(s, "content published", logger.KeyEntityID, c.ID, logger.KeyVersionID, c.VersionID)

	case models.StateUnpublishing:
		if err := db.Model(&dto.ContentVersionDTO{}).Where("node_id = ? AND published = ?", c.ID, true).
			Update("published", false).Error; err != nil {
			return err
		}
		debug(s, "content unpublished", logger.KeyEntityID, c.ID, logger.KeyPublishedVersionID, c.PublishedVersionID)
		c.PublishedVersionID = 0
		c.Published = false
		c.PublishedState = models.StateUnpublished

	default:
		if c.Published {
			c.PublishedState = models.StatePublished
		} else {
			c.PublishedState = models.StateUnpublished
		}
	}

	return updateRow(db, &dto.DocumentDTO{NodeID: c.ID, Published: c.Published, Edited: c.Edited})
}

// createVersion inserts a new current version row for c with its data.
func (r *ContentRepository) createVersion(s *scope.Scope, c *models.Content, ct *contentTypeInfo) error {
	db := s.DB()
	if err := db.Model(&dto.ContentVersionDTO{}).Where("node_id = ? AND current = ?", c.ID, true).
		Update("current", false).Error; err != nil {
		return err
	}
	c.VersionDate = c.UpdateDate
	row := &dto.ContentVersionDTO{
		NodeID:      c.ID,
		VersionDate: c.VersionDate,
		UserID:      nullInt(c.CreatorID),
		Current:     true,
		Text:        c.Name,
	}
	if err := db.Create(row).Error; err != nil {
		return err
	}
	c.VersionID = row.ID
	return r.writeVersionData(s, c, ct)
}

// writeVersion rewrites the current version row in place.
func (r *ContentRepository) writeVersion(s *scope.Scope, c *models.Content, ct *contentTypeInfo, row *dto.ContentVersionDTO) error {
	c.VersionDate = c.UpdateDate
	row.VersionDate = c.VersionDate
	row.Text = c.Name
	if err := updateRow(s.DB(), row); err != nil {
		return err
	}
	return r.writeVersionData(s, c, ct)
}

// writeVersionData replaces the culture names and property values of the
// version c.VersionID. Values of unknown property aliases are dropped.
func (r *ContentRepository) writeVersionData(s *scope.Scope, c *models.Content, ct *contentTypeInfo) error {
	db := s.DB()
	if err := db.Where("version_id = ?", c.VersionID).Delete(&dto.ContentVersionCultureVariationDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("version_id = ?", c.VersionID).Delete(&dto.PropertyDataDTO{}).Error; err != nil {
		return err
	}

	var langs map[string]int
	languageID := func(culture string) (*int, error) {
		if culture == "" {
			return nil, nil
		}
		if langs == nil {
			var err error
			if langs, err = languageIDs(db); err != nil {
				return nil, err
			}
		}
		id, ok := langs[culture]
		if !ok {
			return nil, invalid("unknown culture %q", culture)
		}
		return &id, nil
	}

	for culture, name := range c.CultureNames {
		if culture == "" {
			continue
		}
		id, err := languageID(culture)
		if err != nil {
			return err
		}
		row := &dto.ContentVersionCultureVariationDTO{VersionID: c.VersionID, LanguageID: *id, Name: name, UpdateDate: c.UpdateDate}
		if err := db.Create(row).Error; err != nil {
			return err
		}
	}

	var rows []*dto.PropertyDataDTO
	kept := c.Properties[:0]
	for _, p := range c.Properties {
		pt, ok := ct.properties[p.Alias]
		if !ok {
			debug(s, "dropping value of unknown property", logger.KeyAlias, p.Alias, logger.KeyEntityID, c.ID)
			continue
		}
		p.PropertyTypeID = pt.ID
		kept = append(kept, p)
		for _, v := range p.Values {
			if v.Value.IsNull() {
				continue
			}
			if v.Culture != "" && !models.ContentVariation(pt.Variations).VariesByCulture() {
				return invalid("property %q does not vary by culture", p.Alias)
			}
			lang, err := languageID(v.Culture)
			if err != nil {
				return err
			}
			row := &dto.PropertyDataDTO{
				VersionID:      c.VersionID,
				PropertyTypeID: pt.ID,
				LanguageID:     lang,
				Segment:        nullString(v.Segment),
			}
			if err := storeValue(row, v.Value, models.ValueStorage(pt.ValueStorage)); err != nil {
				return fmt.Errorf("property %q: %w", p.Alias, err)
			}
			rows = append(rows, row)
		}
	}
	c.Properties = kept
	if len(rows) == 0 {
		return nil
	}
	return db.Create(rows).Error
}

func languageIDs(db *gorm.DB) (map[string]int, error) {
	codes, err := languageIsoCodes(db)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(codes))
	for id, iso := range codes {
		out[iso] = id
	}
	return out, nil
}

type contentTypeInfo struct {
	alias      string
	properties map[string]*dto.PropertyTypeDTO
}

func (r *ContentRepository) contentType(s *scope.Scope, id int) (*contentTypeInfo, error) {
	db := s.DB()
	wantType, _ := r.objectType.ContentTypeFor()

	var row contentTypeRow
	res := db.Model(&dto.NodeDTO{}).
		Joins("JOIN content_types ON content_types.node_id = nodes.id").
		Select("nodes.*, content_types.alias").
		Where("nodes.id = ? AND nodes.node_object_type = ?", id, string(wantType)).
		Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%s %d: %w", wantType, id, models.ErrNotFound)
	}

	var types []dto.PropertyTypeDTO
	if err := db.Where("content_type_id = ?", id).Find(&types).Error; err != nil {
		return nil, err
	}
	info := &contentTypeInfo{alias: row.Alias, properties: make(map[string]*dto.PropertyTypeDTO, len(types))}
	for i := range types {
		info.properties[types[i].Alias] = &types[i]
	}
	return info, nil
}

func (r *ContentRepository) remove(s *scope.Scope, c *models.Content) error {
	path, ok, err := pluckFirst[string](s.DB().Model(&dto.NodeDTO{}).Where("id = ?", c.ID), "path")
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}

	var ids []int
	if err := s.DB().Model(&dto.NodeDTO{}).Where("id = ? OR path LIKE ?", c.ID, path+",%").
		Order("level DESC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	return deleteContentNodes(s, ids)
}

// deleteContentNodes deletes content nodes with their versions, values,
// culture names, tags and relations, and invalidates their cached copies.
func deleteContentNodes(s *scope.Scope, ids []int) error {
	db := s.DB()

	var nodes []dto.NodeDTO
	if err := db.Select("id", "unique_id", "node_object_type").Where("id IN ?", ids).Find(&nodes).Error; err != nil {
		return err
	}

	versions := db.Model(&dto.ContentVersionDTO{}).Select("id").Where("node_id IN ?", ids)
	steps := []struct {
		model any
		where string
		arg   any
	}{
		{&dto.PropertyDataDTO{}, "version_id IN (?)", versions},
		{&dto.ContentVersionCultureVariationDTO{}, "version_id IN (?)", versions},
		{&dto.ContentVersionDTO{}, "node_id IN ?", ids},
		{&dto.TagRelationshipDTO{}, "node_id IN ?", ids},
		{&dto.DocumentDTO{}, "node_id IN ?", ids},
		{&dto.MemberDTO{}, "node_id IN ?", ids},
		{&dto.ContentDTO{}, "node_id IN ?", ids},
	}
	for _, step := range steps {
		if err := db.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
			return err
		}
	}

	res := db.Where("parent_id IN ? OR child_id IN ?", ids, ids).Delete(&dto.RelationDTO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		cache.ClearRegion(s.Context(), s.Cache(), regionRelation)
	}
	if err := db.Where("root_content_id IN ?", ids).Delete(&dto.DomainDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("id IN ?", ids).Delete(&dto.NodeDTO{}).Error; err != nil {
		return err
	}

	for _, n := range nodes {
		cache.Invalidate(s.Context(), s.Cache(), nodeRegion(models.ObjectType(n.NodeObjectType)), n.ID, parseKey(n.UniqueID))
	}
	cache.ClearRegion(s.Context(), s.Cache(), regionDomain)
	return nil
}

// GetVersion returns the content as it was in the given version, or nil.
func (r *ContentRepository) GetVersion(s *scope.Scope, versionID int) (c *models.Content, err error) {
	defer observe(s, r.name(), "get_version", time.Now(), &err)

	items, err := r.loadVersions(s, r.joined(s, "content_versions.id = ?", versionID), nil, "nodes.id")
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetAllVersions returns every version of the node, newest first.
func (r *ContentRepository) GetAllVersions(s *scope.Scope, id int) (items []*models.Content, err error) {
	defer observe(s, r.name(), "get_versions", time.Now(), &err)

	return r.loadVersions(s, r.joined(s, "1 = 1"),
		clause.Eq{Column: column("nodes.id"), Value: id}, "content_versions.id DESC")
}

// GetVersionIDs returns the version ids of the node, newest first, at most max.
// A max of zero returns every id.
func (r *ContentRepository) GetVersionIDs(s *scope.Scope, id, max int) ([]int, error) {
	db := s.DB().Model(&dto.ContentVersionDTO{}).Where("node_id = ?", id).Order("id DESC")
	if max > 0 {
		db = db.Limit(max)
	}
	var ids []int
	err := db.Pluck("id", &ids).Error
	return ids, err
}

// DeleteVersion removes one historic version. The current and the
// published version cannot be deleted.
func (r *ContentRepository) DeleteVersion(s *scope.Scope, versionID int) (err error) {
	defer observe(s, r.name(), "delete_version", time.Now(), &err)

	var v dto.ContentVersionDTO
	if err := s.DB().First(&v, versionID).Error; err != nil {
		return notFound(err)
	}
	if v.Current || v.Published {
		return invalid("version %d is current or published", versionID)
	}
	return r.deleteVersions(s, []int{versionID})
}

// DeleteVersions removes the historic versions of a node dated before
// olderThan. The current and the published version are kept.
func (r *ContentRepository) DeleteVersions(s *scope.Scope, id int, olderThan time.Time) (deleted int, err error) {
	defer observe(s, r.name(), "delete_versions", time.Now(), &err)

	var ids []int
	if err := s.DB().Model(&dto.ContentVersionDTO{}).
		Where("node_id = ? AND current = ? AND published = ? AND version_date < ?", id, false, false, olderThan.UTC()).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return len(ids), r.deleteVersions(s, ids)
}

func (r *ContentRepository) deleteVersions(s *scope.Scope, ids []int) error {
	db := s.DB()
	if err := db.Where("version_id IN ?", ids).Delete(&dto.PropertyDataDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("version_id IN ?", ids).Delete(&dto.ContentVersionCultureVariationDTO{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&dto.ContentVersionDTO{}).Error
}

// GetChildren returns the direct children of parentID ordered by sort order.
func (r *ContentRepository) GetChildren(s *scope.Scope, parentID int) ([]*models.Content, error) {
	var ids []int
	if err := r.baseQuery(s).Where("nodes.parent_id = ?", parentID).
		Order("nodes.sort_order, nodes.id").Pluck("nodes.id", &ids).Error; err != nil {
		return nil, err
	}
	return r.getIDs(s, ids)
}

// GetDescendants returns every node below id ordered by level then sort order.
func (r *ContentRepository) GetDescendants(s *scope.Scope, id int) ([]*models.Content, error) {
	path, ok, err := pluckFirst[string](s.DB().Model(&dto.NodeDTO{}).Where("id = ?", id), "path")
	if err != nil || !ok {
		return nil, err
	}
	var ids []int
	if err := r.baseQuery(s).Where("nodes.path LIKE ?", path+",%").
		Order("nodes.level, nodes.sort_order, nodes.id").Pluck("nodes.id", &ids).Error; err != nil {
		return nil, err
	}
	return r.getIDs(s, ids)
}

func (r *ContentRepository) getIDs(s *scope.Scope, ids []int) ([]*models.Content, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.GetMany(s, ids...)
}

// GetPageByParent returns one page of the children of parentID.
func (r *ContentRepository) GetPageByParent(s *scope.Scope, parentID, pageIndex, pageSize int, filter *query.Query, orderings ...query.Ordering) ([]*models.Content, int64, error) {
	return r.GetPage(s, query.New().Where(query.Eq("parentId", parentID)), pageIndex, pageSize, filter, orderings...)
}

// CountChildren returns the number of direct children of parentID.
func (r *ContentRepository) CountChildren(s *scope.Scope, parentID int) (int64, error) {
	return r.Count(s, query.New().Where(query.Eq("parentId", parentID)))
}

// Move reparents c under parentID and returns every affected node with its
// original path.
func (r *ContentRepository) Move(s *scope.Scope, c *models.Content, parentID int) ([]models.MoveEventInfo, error) {
	if !c.HasIdentity() {
		return nil, models.ErrNotSaved
	}
	if parentID != models.RootID {
		ok, err := r.Exists(s, parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s %d: %w", r.objectType, parentID, models.ErrNotFound)
		}
	}
	moved, err := moveNode(s, c.ID, parentID)
	if err != nil {
		return nil, err
	}
	applyMove(&c.TreeEntityBase, moved)
	return moved, nil
}

// order resolves property-alias orderings and culture-variant names.
func (r *ContentRepository) order(s *scope.Scope, db *gorm.DB, i int, o query.Ordering) (*gorm.DB, bool, error) {
	alias := "sort" + strconv.Itoa(i)

	if o.IsCustomField {
		storage, ok, err := pluckFirst[string](s.DB().Model(&dto.PropertyTypeDTO{}).Where("alias = ?", o.Field), "value_storage")
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fmt.Errorf("unknown property alias %q", o.Field)
		}
		db = db.Joins("LEFT JOIN property_data "+alias+" ON "+alias+".version_id = content_versions.id AND "+
			alias+".language_id IS NULL AND "+alias+".segment IS NULL AND "+alias+
			".property_type_id IN (SELECT id FROM property_types WHERE alias = ?)", o.Field)
		col := clause.Column{Table: alias, Name: storageColumn(models.ValueStorage(storage))}
		return db.Order(clause.OrderByColumn{Column: col, Desc: o.IsDescending()}), true, nil
	}

	if o.Field == "name" && o.Culture != "" {
		db = db.Joins("LEFT JOIN content_version_culture_variations "+alias+" ON "+alias+".version_id = content_versions.id AND "+
			alias+".language_id = (SELECT id FROM languages WHERE iso_code = ?)", o.Culture)
		col := clause.Column{Name: "COALESCE(" + alias + ".name, nodes.text)", Raw: true}
		return db.Order(clause.OrderByColumn{Column: col, Desc: o.IsDescending()}), true, nil
	}
	return nil, false, nil
}

func storageColumn(storage models.ValueStorage) string {
	switch storage {
	case models.StorageInteger:
		return "int_value"
	case models.StorageDecimal:
		return "decimal_value"
	case models.StorageDate:
		return "date_value"
	case models.StorageNtext:
		return "text_value"
	default:
		return "varchar_value"
	}
}
