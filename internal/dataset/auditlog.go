package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urbanmobility/taxi-backend-go/internal/apperrors"
	"github.com/urbanmobility/taxi-backend-go/internal/models"
)

// AuditLogTitle heads every audit log file
const AuditLogTitle = "DATA CLEANING LOG"

var auditSeparator = strings.Repeat("=", 50)

// WriteAuditLogFile writes the audit log of a run to path
func WriteAuditLogFile(path string, log models.AuditLog) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "create audit log", err)
	}
	if err := WriteAuditLog(f, log); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "close audit log", err)
	}
	return nil
}

// WriteAuditLog renders the header block followed by one line per entry
func WriteAuditLog(w io.Writer, log models.AuditLog) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, AuditLogTitle)
	fmt.Fprintln(bw, auditSeparator)
	fmt.Fprintf(bw, "Date: %s\n", log.StartedAt.Format(models.DateTimeLayout))
	fmt.Fprintf(bw, "Run: %s\n", log.RunID)
	fmt.Fprintln(bw, auditSeparator)
	fmt.Fprintln(bw)

	for _, line := range log.Lines() {
		fmt.Fprintln(bw, line)
	}

	if err := bw.Flush(); err != nil {
		return apperrors.New(apperrors.PersistenceFailure, "write audit log", err)
	}
	return nil
}
