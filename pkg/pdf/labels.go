package pdf

const (
	LocaleFR = "fr"
	LocaleAR = "ar"
)

// NormalizeLocale: всё, кроме "ar", печатается по-французски.
func NormalizeLocale(raw string) string {
	if raw == LocaleAR {
		return LocaleAR
	}
	return LocaleFR
}

var labels = map[string]map[string]string{
	LocaleFR: {
		"title":                   "REGISTRE DE PERMANENCE",
		"footer":                  "Document officiel - Ne pas reproduire sans autorisation",
		"system":                  "SYSTÈME DE GESTION",
		"permanence_info":         "Informations de la permanence",
		"date":                    "Date",
		"period":                  "Période",
		"officer":                 "Officier de permanence",
		"status":                  "Statut",
		"matricule":               "Matricule",
		"edition_date":            "Date d'édition",
		"assigned_personnel":      "Personnel affecté",
		"sous_officier":           "Sous-officier",
		"site":                    "Site",
		"officer_comment":         "Commentaire de l'officier",
		"managerial_relation":     "Relation Managériale",
		"hour":                    "Heure",
		"event_fact":              "Événement / Fait constaté",
		"ordered_effects":         "Effets ordonnés",
		"section_officer":         "Saisies de l'Officier",
		"section_sous_officiers":  "Saisies des Sous-officiers",
		"no_officer_events":       "Aucune saisie de l'officier.",
		"no_sous_officier_events": "Aucune saisie des sous-officiers.",
		"operateur":               "Opérateur",
		"chef_poste":              "Chef de poste",
		"materiel_officier":       "Matériel reçu par l'Officier",
		"materiel_operateurs":     "Matériel reçu par les Opérateurs",
		"materiel_no_officier":    "Aucun matériel enregistré pour l'officier.",
		"materiel_no_operateurs":  "Aucun matériel enregistré pour les opérateurs.",
		"appareil":                "Appareil",
		"recu":                    "Reçu",
		"etat":                    "État",
		"commentaire":             "Commentaire",
		"oui":                     "Oui",
		"non":                     "Non",
		"fonctionne":              "Fonctionne",
		"endommage":               "Endommagé",
		"hors_service":            "Hors service",
		"validation":              "Validation du registre",
		"validation_date":         "Date de validation",
		"signature":               "Signature",
		"electronic_validation":   "Document validé électroniquement",
		"validated":               "Validée",
	},
	LocaleAR: {
		"title":                   "سجل المداومة",
		"footer":                  "وثيقة رسمية - يمنع النسخ بدون إذن",
		"system":                  "نظام التسيير",
		"permanence_info":         "معلومات المداومة",
		"date":                    "التاريخ",
		"period":                  "الفترة",
		"officer":                 "ضابط المداومة",
		"status":                  "الحالة",
		"matricule":               "الرقم التسلسلي",
		"edition_date":            "تاريخ الطباعة",
		"assigned_personnel":      "الأفراد المعينون",
		"sous_officier":           "ضابط صف",
		"site":                    "الموقع",
		"officer_comment":         "ملاحظة الضابط",
		"managerial_relation":     "العلاقة الإدارية",
		"hour":                    "الساعة",
		"event_fact":              "الحدث / الواقعة المعاينة",
		"ordered_effects":         "الإجراءات المتخذة",
		"section_officer":         "تسجيلات الضابط",
		"section_sous_officiers":  "تسجيلات ضباط الصف",
		"no_officer_events":       "لا توجد تسجيلات من الضابط.",
		"no_sous_officier_events": "لا توجد تسجيلات من ضباط الصف.",
		"operateur":               "مشغّل",
		"chef_poste":              "رئيس مركز",
		"materiel_officier":       "المعدات المستلمة من طرف الضابط",
		"materiel_operateurs":     "المعدات المستلمة من طرف العاملين",
		"materiel_no_officier":    "لا توجد معدات مسجلة للضابط.",
		"materiel_no_operateurs":  "لا توجد معدات مسجلة للعاملين.",
		"appareil":                "الجهاز",
		"recu":                    "مستلم",
		"etat":                    "الحالة",
		"commentaire":             "ملاحظة",
		"oui":                     "نعم",
		"non":                     "لا",
		"fonctionne":              "يعمل",
		"endommage":               "تالف",
		"hors_service":            "خارج الخدمة",
		"validation":              "المصادقة على السجل",
		"validation_date":         "تاريخ المصادقة",
		"signature":               "التوقيع",
		"electronic_validation":   "تمت المصادقة على هذا السجل إلكترونيًا",
		"validated":               "مصادق عليها",
	},
}

// Label возвращает перевод; неизвестный ключ печатается как есть.
func Label(locale, key string) string {
	if v, ok := labels[NormalizeLocale(locale)][key]; ok {
		return v
	}
	return key
}
