package seeders

type siteSeed struct {
	Nom          string
	Code         string
	Localisation string
	IsActive     bool
}

type userSeed struct {
	Nom       string
	Prenom    string
	Matricule string
	Email     string
	Role      string
	Fonction  string
}

var demoSites = []siteSeed{
	{"Poste Central", "PC", "Centre-ville", true},
	{"Poste Nord", "PN", "Zone Nord", true},
	{"Poste Sud", "PS", "Zone Sud", true},
	{"Poste Est", "PE", "Zone Est", true},
	{"Poste Ouest", "PO", "Zone Ouest", false},
}

var demoOfficers = []userSeed{
	{"DUPONT", "Jean", "OFF001", "officier1@registre.local", "officier", ""},
	{"MARTIN", "Pierre", "OFF002", "officier2@registre.local", "officier", ""},
}

var demoNCOs = []userSeed{
	{"BERNARD", "Michel", "SO001", "sousofficier1@registre.local", "sous_officier", "chef_poste"},
	{"PETIT", "François", "SO002", "sousofficier2@registre.local", "sous_officier", "operateur"},
	{"DURAND", "Paul", "SO003", "sousofficier3@registre.local", "sous_officier", "operateur"},
	{"MOREAU", "Jacques", "SO004", "sousofficier4@registre.local", "sous_officier", "chef_poste"},
	{"LAMBERT", "Antoine", "SO005", "sousofficier5@registre.local", "sous_officier", "operateur"},
}

var demoViewer = userSeed{"CONSULT", "Lecture", "VIS001", "lecteur@registre.local", "viewer", ""}

// shiftSeed DayOffset относительно сегодняшнего дня, NCOs и Sites: индексы в demoNCOs/demoSites.
type shiftSeed struct {
	DayOffset int
	Officer   int
	Statut    string
	NCOs      []int
	Sites     []int
}

var demoShifts = []shiftSeed{
	{DayOffset: -5, Officer: 0, Statut: "validee", NCOs: []int{0, 1}, Sites: []int{0, 1}},
	{DayOffset: 0, Officer: 0, Statut: "en_cours", NCOs: []int{2, 3}, Sites: []int{0, 2}},
	{DayOffset: 1, Officer: 1, Statut: "planifiee", NCOs: []int{0, 4}, Sites: []int{1, 3}},
	{DayOffset: 2, Officer: 1, Statut: "planifiee"},
}
