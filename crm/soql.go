// ABOUTME: SOQL query construction for opportunity lookups
// ABOUTME: Escapes literals and validates record ids before they reach a query string
package crm

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	opportunityFields = "Id,Name,StageName,LeadSource,Type,Fabricator_Name__c,Quantity__c,Length__c,Breadth__c,Depth__c," +
		"Owner.Name,Account.Name,Account.BillingStreet,Account.BillingCity,Account.BillingState," +
		"Account.BillingPostalCode,Account.BillingCountry"

	contactRolesSubquery = "(SELECT Contact.Name,Contact.Phone,Contact.Email FROM OpportunityContactRoles)"

	lineItemsSubquery = "(SELECT Quantity,UnitPrice,TotalPrice,PricebookEntry.Product2.Name," +
		"PricebookEntry.Product2.ProductCode,PricebookEntry.Product2.Description FROM OpportunityLineItems)"
)

var recordIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{15}([a-zA-Z0-9]{3})?$`)

var soqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// EscapeLiteral escapes s for use inside a single-quoted SOQL string literal.
func EscapeLiteral(s string) string {
	return soqlEscaper.Replace(s)
}

// ValidID reports whether id looks like a 15 or 18 character CRM record id.
func ValidID(id string) bool {
	return recordIDPattern.MatchString(id)
}

// LeadsByOwnerQuery selects every opportunity owned by the named user.
func LeadsByOwnerQuery(owner string) string {
	q := fmt.Sprintf("SELECT %s,%s FROM Opportunity", opportunityFields, contactRolesSubquery)
	if owner != "" {
		q += fmt.Sprintf(" WHERE Owner.Name='%s'", EscapeLiteral(owner))
	}
	return q
}

// LeadDetailQuery selects one opportunity with contact roles and line items.
func LeadDetailQuery(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return fmt.Sprintf("SELECT %s,%s,%s FROM Opportunity WHERE Id='%s'",
		opportunityFields, contactRolesSubquery, lineItemsSubquery, id), nil
}
