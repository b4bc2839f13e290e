package server

import (
	"io"
	"time"

	"github.com/assocdesk/memberportal/internal/providers/pdf"
	"github.com/gin-gonic/gin"

	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

func certificateData(memberName string, app membershipdomain.Application, approvedDate string) pdf.CertificateData {
	return pdf.CertificateData{
		AssociationName: "Industry Association",
		MemberName:      memberName,
		MembershipType:  string(app.MembershipType),
		MemberNumber:    app.ID.String(),
		IdentityNumber:  app.IdentityNumber,
		ApprovedDate:    approvedDate,
		IssuedDate:      time.Now().UTC().Format("2 January 2006"),
	}
}

func copyTo(c *gin.Context, reader io.Reader) (int64, error) {
	if reader == nil {
		return 0, nil
	}
	return io.Copy(c.Writer, reader)
}
