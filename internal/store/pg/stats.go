package pg

import (
	"context"

	"saletrack.org/internal/sales"
)

// Stats aggregates the dashboard figures. The advisor breakdown joins on
// the Advisor role and is only computed when requested.
func (s *Store) Stats(ctx context.Context, includeAdvisors bool) (sales.Stats, error) {
	stats := sales.Stats{
		ByProduct: []sales.ProductStat{},
		ByStatus:  []sales.StatusStat{},
		ByDay:     []sales.DayStat{},
	}

	err := s.db.QueryRowContext(ctx, `
		select count(*), coalesce(sum(requested_limit), 0) from sale_records
	`).Scan(&stats.TotalRecords, &stats.TotalRequestedLimit)
	if err != nil {
		return sales.Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select p.name, count(v.id), coalesce(sum(v.requested_limit), 0)
		from products p
		left join sale_records v on v.product_id = p.id
		group by p.id, p.name
		order by count(v.id) desc
	`)
	if err != nil {
		return sales.Stats{}, err
	}
	for rows.Next() {
		var ps sales.ProductStat
		if err := rows.Scan(&ps.Product, &ps.Count, &ps.TotalRequestedLimit); err != nil {
			rows.Close()
			return sales.Stats{}, err
		}
		stats.ByProduct = append(stats.ByProduct, ps)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sales.Stats{}, err
	}

	rows, err = s.db.QueryContext(ctx, `
		select st.name, count(v.id)
		from sale_statuses st
		left join sale_records v on v.status_id = st.id
		group by st.id, st.name, st.display_order
		order by st.display_order
	`)
	if err != nil {
		return sales.Stats{}, err
	}
	for rows.Next() {
		var ss sales.StatusStat
		if err := rows.Scan(&ss.Status, &ss.Count); err != nil {
			rows.Close()
			return sales.Stats{}, err
		}
		stats.ByStatus = append(stats.ByStatus, ss)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sales.Stats{}, err
	}

	if includeAdvisors {
		stats.ByAdvisor = []sales.AdvisorStat{}
		rows, err = s.db.QueryContext(ctx, `
			select u.name, count(v.id), coalesce(sum(v.requested_limit), 0)
			from identities u
			join roles r on r.id = u.role_id
			left join sale_records v on v.created_by = u.id
			where r.name = 'Advisor'
			group by u.id, u.name
			order by count(v.id) desc
		`)
		if err != nil {
			return sales.Stats{}, err
		}
		for rows.Next() {
			var as sales.AdvisorStat
			if err := rows.Scan(&as.Advisor, &as.Count, &as.TotalRequestedLimit); err != nil {
				rows.Close()
				return sales.Stats{}, err
			}
			stats.ByAdvisor = append(stats.ByAdvisor, as)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return sales.Stats{}, err
		}
	}

	rows, err = s.db.QueryContext(ctx, `
		select to_char(v.created_at::date, 'YYYY-MM-DD'), count(*), coalesce(sum(v.requested_limit), 0)
		from sale_records v
		where v.created_at >= now() - interval '30 days'
		group by v.created_at::date
		order by 1 desc
		limit 30
	`)
	if err != nil {
		return sales.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ds sales.DayStat
		if err := rows.Scan(&ds.Date, &ds.Count, &ds.TotalRequestedLimit); err != nil {
			return sales.Stats{}, err
		}
		stats.ByDay = append(stats.ByDay, ds)
	}
	return stats, rows.Err()
}
