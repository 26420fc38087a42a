package domain

// Ledger column names as they appear in the exported cashier files.
const (
	ColCashierDate     = "Tanggal Kasir"
	ColDocumentID      = "ID Dokumen"
	ColDocumentNumber  = "Nomor Dokumen"
	ColCounterparty    = "Dibayarkan (ke/dari)"
	ColPurpose         = "Keperluan"
	ColVesselVoyage    = "Vessel Voyage"
	ColDebet           = "Debet"
	ColKredit          = "Kredit"
	ColPaymentPlace    = "Tempat Pembayaran"
	ColCreator         = "Pembuat"
	ColSourceDocument  = "Sumber Dokumen"
	ColDocumentType    = "Jenis Dokumen"
	ColDeliveryDate    = "Tanggal Delivery"
	ColCodeName        = "Nama Kode"
	ColAccountingCode  = "Kode Accounting"
	ColRecognitionUser = "User Pengakuan"
	ColUnit            = "Unit"
	ColDivision        = "Divisi"
	ColFlag            = "Flag KBM/KDRT"
	ColTargetFirst     = "Target_First"
	ColTargetType      = "Target_Jenis"
	ColTargetSecond    = "Target_Second"

	// Report-only columns.
	ColGroup    = "Grup"
	ColIndex    = "index"
	ColSource   = "Sumber"
	ColPosition = "Posisi"
)

// LedgerColumns is the ordered set of business columns read from a ledger file.
var LedgerColumns = []string{
	ColCashierDate, ColDocumentID, ColDocumentNumber, ColCounterparty, ColPurpose,
	ColVesselVoyage, ColDebet, ColKredit, ColPaymentPlace, ColCreator,
	ColSourceDocument, ColDocumentType, ColDeliveryDate, ColCodeName,
	ColAccountingCode, ColRecognitionUser, ColUnit, ColDivision, ColFlag,
	ColTargetFirst, ColTargetType, ColTargetSecond,
}

// ReportColumns is the full output schema of one report sheet.
var ReportColumns = append(append([]string{ColGroup, ColIndex}, LedgerColumns...), ColSource, ColPosition)

// Field returns the text value of a business column. Amount columns are
// rendered with their canonical decimal form.
func (t Transaction) Field(col string) string {
	switch col {
	case ColCashierDate:
		return t.CashierDate
	case ColDocumentID:
		return t.DocumentID
	case ColDocumentNumber:
		return t.DocumentNumber
	case ColCounterparty:
		return t.Counterparty
	case ColPurpose:
		return t.Purpose
	case ColVesselVoyage:
		return t.VesselVoyage
	case ColDebet:
		return t.Debet.String()
	case ColKredit:
		return t.Kredit.String()
	case ColPaymentPlace:
		return t.PaymentPlace
	case ColCreator:
		return t.Creator
	case ColSourceDocument:
		return t.SourceDocument
	case ColDocumentType:
		return t.DocumentType
	case ColDeliveryDate:
		return t.DeliveryDate
	case ColCodeName:
		return t.CodeName
	case ColAccountingCode:
		return t.AccountingCode
	case ColRecognitionUser:
		return t.RecognitionUser
	case ColUnit:
		return t.Unit
	case ColDivision:
		return t.Division
	case ColFlag:
		return t.Flag
	case ColTargetFirst:
		return t.TargetFirst
	case ColTargetType:
		return t.TargetType
	case ColTargetSecond:
		return t.TargetSecond
	case ColSource:
		return string(t.Source)
	case ColPosition:
		return string(t.Position)
	}
	return ""
}

// SetField assigns a text column. Amount columns are ignored; callers parse
// those separately. It reports whether col is a known text column.
func (t *Transaction) SetField(col, value string) bool {
	switch col {
	case ColCashierDate:
		t.CashierDate = value
	case ColDocumentID:
		t.DocumentID = value
	case ColDocumentNumber:
		t.DocumentNumber = value
	case ColCounterparty:
		t.Counterparty = value
	case ColPurpose:
		t.Purpose = value
	case ColVesselVoyage:
		t.VesselVoyage = value
	case ColPaymentPlace:
		t.PaymentPlace = value
	case ColCreator:
		t.Creator = value
	case ColSourceDocument:
		t.SourceDocument = value
	case ColDocumentType:
		t.DocumentType = value
	case ColDeliveryDate:
		t.DeliveryDate = value
	case ColCodeName:
		t.CodeName = value
	case ColAccountingCode:
		t.AccountingCode = value
	case ColRecognitionUser:
		t.RecognitionUser = value
	case ColUnit:
		t.Unit = value
	case ColDivision:
		t.Division = value
	case ColFlag:
		t.Flag = value
	case ColTargetFirst:
		t.TargetFirst = value
	case ColTargetType:
		t.TargetType = value
	case ColTargetSecond:
		t.TargetSecond = value
	default:
		return false
	}
	return true
}
