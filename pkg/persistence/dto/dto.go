// Package dto contains the gorm row models backing strata repositories.
//
// Rows are plain data. Conversion to and from domain entities lives in the
// repository package next to the queries that read them.
package dto

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&NodeDTO{},
		&ContentTypeDTO{},
		&PropertyTypeGroupDTO{},
		&PropertyTypeDTO{},
		&ContentDTO{},
		&DocumentDTO{},
		&MemberDTO{},
		&ContentVersionDTO{},
		&ContentVersionCultureVariationDTO{},
		&PropertyDataDTO{},
		&TagDTO{},
		&TagRelationshipDTO{},
		&RelationTypeDTO{},
		&RelationDTO{},
		&LanguageDTO{},
		&DomainDTO{},
		&RedirectURLDTO{},
		&DictionaryDTO{},
		&LanguageTextDTO{},
		&MacroDTO{},
		&MacroPropertyDTO{},
		&ServerRegistrationDTO{},
		&CacheInstructionDTO{},
		&AuditItemDTO{},
		&LongRunningOperationDTO{},
		&UserGroupDTO{},
		&UserGroupSectionDTO{},
		&UserDTO{},
		&UserGroupMemberDTO{},
	}
}
