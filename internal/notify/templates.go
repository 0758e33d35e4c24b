package notify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// ClientMessage tells the client who will perform the service.
func ClientMessage(a *domain.Assignment, req *domain.ServiceRequest) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\n", req.Client.Name)
	fmt.Fprintf(&b, "Seu serviço de limpeza (%s) foi confirmado para %s às %s.\n", req.ServiceType, req.ScheduledDate, req.ScheduledTime)
	fmt.Fprintf(&b, "Endereço: %s\n", req.Address)
	fmt.Fprintf(&b, "Profissional: %s", a.StaffName)
	if a.StaffPhone != "" {
		fmt.Fprintf(&b, " (%s)", a.StaffPhone)
	}
	b.WriteString("\n")
	return Message{
		To:      req.Client.Email,
		Subject: "Serviço confirmado",
		Text:    b.String(),
	}
}

// StaffMessage gives the staff member the job details.
func StaffMessage(a *domain.Assignment, req *domain.ServiceRequest) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\n", a.StaffName)
	fmt.Fprintf(&b, "Você foi designado(a) para um serviço %s em %s às %s.\n", req.ServiceType, req.ScheduledDate, req.ScheduledTime)
	fmt.Fprintf(&b, "Endereço: %s\n", req.Address)
	fmt.Fprintf(&b, "Cliente: %s", req.Client.Name)
	if req.Client.Phone != "" {
		fmt.Fprintf(&b, " (%s)", req.Client.Phone)
	}
	b.WriteString("\n")
	if req.Observations != "" {
		fmt.Fprintf(&b, "Observações: %s\n", req.Observations)
	}
	return Message{
		To:      a.StaffEmail,
		Subject: "Novo serviço atribuído",
		Text:    b.String(),
	}
}

// ReleaseMessage informs the staff member an assignment was withdrawn.
func ReleaseMessage(a *domain.Assignment, req *domain.ServiceRequest) Message {
	return Message{
		To:      a.StaffEmail,
		Subject: "Serviço desatribuído",
		Text: fmt.Sprintf("Olá %s,\n\nO serviço %s de %s às %s não está mais atribuído a você.\n",
			a.StaffName, req.ServiceType, req.ScheduledDate, req.ScheduledTime),
	}
}
