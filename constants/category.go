package constants

// ReportCategory selects which persisted record set the report view shows.
type ReportCategory string

const (
	ReportInputVAT   ReportCategory = "ppn_masukan"
	ReportOutputVAT  ReportCategory = "ppn_keluaran"
	ReportBuktiSetor ReportCategory = "bukti_setor"
)

var allReportCategories = []ReportCategory{
	ReportInputVAT,
	ReportOutputVAT,
	ReportBuktiSetor,
}

// ReportCategoryStrings returns the category values for CLI help text.
func ReportCategoryStrings() []string {
	result := make([]string, len(allReportCategories))
	for i, c := range allReportCategories {
		result[i] = string(c)
	}
	return result
}

// IsValidReportCategory checks a raw category string against the known set.
func IsValidReportCategory(input string) bool {
	for _, c := range allReportCategories {
		if input == string(c) {
			return true
		}
	}
	return false
}

// Domain selects the backend processing pipeline for an upload batch.
type Domain string

const (
	DomainFaktur     Domain = "faktur"
	DomainBuktiSetor Domain = "bukti_setor"
)

// IsValidDomain checks a raw domain string against the known set.
func IsValidDomain(input string) bool {
	return input == string(DomainFaktur) || input == string(DomainBuktiSetor)
}
