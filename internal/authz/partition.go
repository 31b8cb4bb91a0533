package authz

import (
	sq "github.com/Masterminds/squirrel"

	"permanence-system/internal/entities"
)

type partitionMode int

const (
	partitionNone partitionMode = iota
	partitionAll
	// permanences, где actor ответственный офицер
	partitionResponsible
	// permanences, куда actor назначен
	partitionAssigned
	// свои записи на permanences, куда actor назначен
	partitionAuthoredAssigned
	// только свои строки (affectations)
	partitionOwnRows
	// активные записи справочника
	partitionActive
)

// Partition: обязательный предикат видимости строк для list-запросов.
type Partition struct {
	kind    ResourceKind
	mode    partitionMode
	actorID uint64
	shiftID *uint64
	siteIDs []uint64
}

// PartitionFor строит фильтр видимости. shiftID ограничивает выборку одной permanence.
// Неизвестная роль или неактивный пользователь получают пустой раздел.
func PartitionFor(actor *entities.User, kind ResourceKind, shiftID *uint64) Partition {
	p := Partition{kind: kind, mode: partitionNone, shiftID: shiftID}
	if actor == nil || !actor.IsActive {
		return p
	}
	p.actorID = actor.ID

	switch actor.Role {
	case entities.RoleAdmin:
		p.mode = partitionAll
	case entities.RoleViewer:
		p.mode = viewerMode(kind)
	case entities.RoleOfficier:
		p.mode = officerMode(kind)
	case entities.RoleSousOfficier:
		p.mode = ncoMode(kind)
	}
	return p
}

// Scoped ограничивает раздел одной permanence.
func (p Partition) Scoped(shiftID uint64) Partition {
	p.shiftID = &shiftID
	return p
}

func (p Partition) ActorID() uint64 {
	return p.actorID
}

// WithSite для sous-officier: аппараты сайтов его назначений и глобальные (без сайта).
// Без аргументов раздел не сужается.
func (p Partition) WithSite(siteIDs ...uint64) Partition {
	p.siteIDs = append([]uint64(nil), siteIDs...)
	return p
}

func viewerMode(kind ResourceKind) partitionMode {
	switch kind {
	case KindUser, KindSetting, KindAuditLog:
		return partitionNone
	case KindDevice, KindSite:
		return partitionActive
	}
	return partitionAll
}

func officerMode(kind ResourceKind) partitionMode {
	switch kind {
	case KindRestartRecord, KindMaterialReception:
		return partitionResponsible
	case KindUser, KindSetting, KindAuditLog:
		return partitionNone
	case KindDevice, KindSite:
		return partitionActive
	}
	return partitionAll
}

func ncoMode(kind ResourceKind) partitionMode {
	switch kind {
	case KindPermanence:
		return partitionAssigned
	case KindAssignment:
		return partitionOwnRows
	case KindLogbookEvent, KindEnergyReading:
		return partitionAuthoredAssigned
	case KindDevice, KindSite:
		return partitionActive
	}
	return partitionNone
}

// IsEmpty: раздел заведомо пуст, запрос можно не выполнять.
func (p Partition) IsEmpty() bool {
	return p.mode == partitionNone
}

// ownerColumn: колонка автора/владельца строки для каждого вида ресурса.
func ownerColumn(kind ResourceKind) string {
	switch kind {
	case KindLogbookEvent:
		return "auteur_id"
	case KindEnergyReading, KindAssignment:
		return "sous_officier_id"
	case KindMaterialReception:
		return "user_id"
	case KindRestartRecord:
		return "officier_id"
	}
	return "id"
}

// shiftColumn: колонка, ссылающаяся на permanence (у самой permanence это id).
func shiftColumn(kind ResourceKind) string {
	if kind == KindPermanence {
		return "id"
	}
	return "permanence_id"
}

func col(alias, name string) string {
	if alias == "" {
		return name
	}
	return alias + "." + name
}

// Predicate рендерит предикат для таблицы ресурса с заданным алиасом.
func (p Partition) Predicate(alias string) sq.Sqlizer {
	shiftCol := col(alias, shiftColumn(p.kind))

	var pred sq.Sqlizer
	switch p.mode {
	case partitionAll:
		pred = sq.Expr("1 = 1")
	case partitionActive:
		if len(p.siteIDs) > 0 {
			var site interface{} = p.siteIDs
			if len(p.siteIDs) == 1 {
				site = p.siteIDs[0]
			}
			pred = sq.And{
				sq.Eq{col(alias, "is_active"): true},
				sq.Or{sq.Eq{col(alias, "site_id"): site}, sq.Eq{col(alias, "site_id"): nil}},
			}
		} else {
			pred = sq.Eq{col(alias, "is_active"): true}
		}
	case partitionResponsible:
		pred = sq.Expr(shiftCol+" IN (SELECT id FROM permanences WHERE officier_id = ?)", p.actorID)
	case partitionAssigned:
		pred = sq.Expr(shiftCol+" IN (SELECT permanence_id FROM permanence_sous_officier WHERE sous_officier_id = ?)", p.actorID)
	case partitionAuthoredAssigned:
		pred = sq.And{
			sq.Eq{col(alias, ownerColumn(p.kind)): p.actorID},
			sq.Expr(shiftCol+" IN (SELECT permanence_id FROM permanence_sous_officier WHERE sous_officier_id = ?)", p.actorID),
		}
	case partitionOwnRows:
		pred = sq.Eq{col(alias, ownerColumn(p.kind)): p.actorID}
	default:
		return sq.Expr("1 = 0")
	}

	if p.shiftID != nil {
		return sq.And{pred, sq.Eq{shiftCol: *p.shiftID}}
	}
	return pred
}

// RowRef: то, что нужно знать о строке для проверки в памяти.
type RowRef struct {
	ShiftID         uint64
	ShiftOfficierID uint64
	OwnerID         uint64
	ActorAssigned   bool
	IsActive        bool
	SiteID          *uint64
}

// Allows: та же логика, что и Predicate, но для уже загруженной строки.
func (p Partition) Allows(r RowRef) bool {
	if p.shiftID != nil && r.ShiftID != *p.shiftID {
		return false
	}
	switch p.mode {
	case partitionAll:
		return true
	case partitionActive:
		if !r.IsActive {
			return false
		}
		if len(p.siteIDs) == 0 || r.SiteID == nil {
			return true
		}
		for _, id := range p.siteIDs {
			if *r.SiteID == id {
				return true
			}
		}
		return false
	case partitionResponsible:
		return r.ShiftOfficierID == p.actorID
	case partitionAssigned:
		return r.ActorAssigned
	case partitionAuthoredAssigned:
		return r.ActorAssigned && r.OwnerID == p.actorID
	case partitionOwnRows:
		return r.OwnerID == p.actorID
	}
	return false
}
