/*
Package recordset is the in-memory tabular result type the execution
graph's tasks pass between each other, and the operators that transform
one: projection, aggregate projection (count/sum/min/max/mean, plus
distinct-count and exists), filter, limit, sort, and the set operators
union and except. Cost gives a fixed estimate for an operation —
rowCount × a per-operation constant — for diagnostics only; the
scheduler does not read it, and no plan choice depends on it, since
cost-based optimization is out of scope.
*/
package recordset
