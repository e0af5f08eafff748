package envio

import (
	"fmt"
	"strings"
)

// Scope names one of the indexer queries.
type Scope string

const (
	ScopeRecent        Scope = "recent"
	ScopeUser          Scope = "user_transactions"
	ScopeVaultMgmt     Scope = "vault_management"
	ScopeUserActivity  Scope = "user_activity"
	ScopeVaultActivity Scope = "vault_activity"
)

var envelopeFields = []string{"vaultAddress", "chainId", "blockNumber", "blockTimestamp", "transactionHash"}

type entity struct {
	alias  string
	name   string
	fields []string
}

var (
	depositEntity  = entity{"deposits", "Deposit", []string{"sender", "owner", "assets", "shares"}}
	withdrawEntity = entity{"withdrawals", "Withdraw", []string{"sender", "receiver", "owner", "assets", "shares"}}
	transferEntity = entity{"transfers", "Transfer", []string{"sender", "receiver", "value"}}
	reportEntity   = entity{"strategyReports", "StrategyReported", []string{"strategy", "gain", "loss", "current_debt", "protocol_fees", "total_fees", "total_refunds"}}
	debtEntity     = entity{"debtUpdates", "DebtUpdated", []string{"strategy", "current_debt", "new_debt"}}
	changeEntity   = entity{"strategyChanges", "StrategyChanged", []string{"strategy", "change_type"}}
	shutdownEntity = entity{"shutdowns", "Shutdown", nil}
	roleSetEntity  = entity{"roleSets", "RoleSet", []string{"account", "role"}}
)

var (
	userEntities       = []entity{depositEntity, withdrawEntity, transferEntity}
	managementEntities = []entity{reportEntity, debtEntity, changeEntity, shutdownEntity, roleSetEntity}
	allEntities        = append(append([]entity{}, userEntities...), managementEntities...)
)

// queryShape describes how one operation filters, orders and pages.
type queryShape struct {
	operation string
	variables string
	where     string
	order     string
	paging    string
	entities  []entity
}

const (
	orderDesc = "{ blockTimestamp: desc, blockNumber: desc, logIndex: desc }"
	orderAsc  = "{ blockTimestamp: asc, blockNumber: asc, logIndex: asc }"
)

var shapes = map[Scope]queryShape{
	ScopeRecent: {
		operation: "GetRecentActivity",
		variables: "$limit: Int!, $chainIds: [Int!]!",
		where:     "{ chainId: { _in: $chainIds } }",
		order:     orderDesc,
		paging:    "limit: $limit",
		entities:  allEntities,
	},
	ScopeUser: {
		operation: "GetRecentUserTransactions",
		variables: "$limit: Int!, $chainIds: [Int!]!",
		where:     "{ chainId: { _in: $chainIds } }",
		order:     orderDesc,
		paging:    "limit: $limit",
		entities:  userEntities,
	},
	ScopeVaultMgmt: {
		operation: "GetRecentVaultManagementActivity",
		variables: "$limit: Int!, $chainIds: [Int!]!",
		where:     "{ chainId: { _in: $chainIds } }",
		order:     orderDesc,
		paging:    "limit: $limit",
		entities:  managementEntities,
	},
	ScopeUserActivity: {
		operation: "GetUserActivity",
		variables: "$userAddress: String!, $chainIds: [Int!]!",
		where:     "{ owner: { _eq: $userAddress }, chainId: { _in: $chainIds } }",
		order:     orderAsc,
		entities:  []entity{depositEntity, withdrawEntity},
	},
	ScopeVaultActivity: {
		operation: "GetVaultActivity",
		variables: "$vaultAddress: String!, $limit: Int!, $offset: Int!, $chainIds: [Int!]!",
		where:     "{ vaultAddress: { _eq: $vaultAddress }, chainId: { _in: $chainIds } }",
		order:     orderDesc,
		paging:    "limit: $limit\n    offset: $offset",
		entities:  []entity{depositEntity, withdrawEntity},
	},
}

var builtQueries = func() map[Scope]string {
	out := make(map[Scope]string, len(shapes))
	for scope, shape := range shapes {
		out[scope] = shape.render()
	}
	return out
}()

func (q queryShape) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query %s(%s) {\n", q.operation, q.variables)
	for _, e := range q.entities {
		fmt.Fprintf(&b, "  %s: %s(\n    where: %s\n    order_by: %s\n", e.alias, e.name, q.where, q.order)
		if q.paging != "" {
			fmt.Fprintf(&b, "    %s\n", q.paging)
		}
		b.WriteString("  ) {\n    id\n")
		for _, f := range e.fields {
			fmt.Fprintf(&b, "    %s\n", f)
		}
		for _, f := range envelopeFields {
			fmt.Fprintf(&b, "    %s\n", f)
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// Query returns the GraphQL document for scope.
func Query(scope Scope) (string, bool) {
	q, ok := builtQueries[scope]
	return q, ok
}
